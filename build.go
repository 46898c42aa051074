package safesql

import (
	"github.com/pthm/safesql/internal/sqlgen"
	"github.com/pthm/safesql/pkg/query"
)

// The Build functions return the statement a Client would execute for a
// descriptor, without consulting the allow-list or touching a database.
// Errors are *Error values, classified the same way as Client errors.

// BuildSelect renders a SELECT statement.
func BuildSelect(q query.SelectQuery) (string, error) {
	return build("BuildSelect", func() (string, error) { return sqlgen.BuildSelect(q) })
}

// BuildCount renders a SELECT count(*) statement.
func BuildCount(q query.CountQuery) (string, error) {
	return build("BuildCount", func() (string, error) { return sqlgen.BuildCount(q) })
}

// BuildInsert renders an INSERT statement.
func BuildInsert(q query.InsertQuery) (string, error) {
	return build("BuildInsert", func() (string, error) { return sqlgen.BuildInsert(q) })
}

// BuildUpdate renders an UPDATE statement.
func BuildUpdate(q query.UpdateQuery) (string, error) {
	return build("BuildUpdate", func() (string, error) { return sqlgen.BuildUpdate(q) })
}

// BuildDelete renders a DELETE statement.
func BuildDelete(q query.DeleteQuery) (string, error) {
	return build("BuildDelete", func() (string, error) { return sqlgen.BuildDelete(q) })
}

func build(source string, fn func() (string, error)) (string, error) {
	stmt, err := fn()
	if err != nil {
		return "", newError(source, err)
	}
	return stmt, nil
}
