package safesql

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/pthm/safesql/internal/guard"
	"github.com/pthm/safesql/internal/sqlgen"
)

// Sentinel errors. Every error returned by a Client is an *Error whose chain
// contains exactly one of these classes; use errors.Is or the Is*Err helpers
// to branch on them.
var (
	// ErrValidation matches rejections by the sanitizer and the injection
	// guard: unsafe characters, unknown tokens and allow-list misses.
	ErrValidation = guard.ErrValidation

	// ErrUnsafeInput is returned when a value could alter statement structure.
	ErrUnsafeInput = guard.ErrUnsafeInput

	// ErrInvalidToken is returned for an unknown operator, relation, join
	// type or sort direction.
	ErrInvalidToken = guard.ErrInvalidToken

	// ErrTableNotAllowed is returned when a table is not in the allow-list.
	ErrTableNotAllowed = guard.ErrTableNotAllowed

	// ErrQueryNotAllowed is returned when a raw statement is not in the
	// allow-list.
	ErrQueryNotAllowed = guard.ErrQueryNotAllowed

	// ErrStructure is returned when a descriptor cannot form a statement,
	// for example an aliased INSERT target or rows with differing columns.
	ErrStructure = sqlgen.ErrStructure

	// ErrRawDisabled is returned by Raw when raw access has not been granted.
	ErrRawDisabled = errors.New("safesql: raw queries are disabled")

	// ErrDriver wraps every failure reported by the Driver.
	ErrDriver = errors.New("safesql: driver error")

	// ErrAnomalousResult is returned when an INSERT, UPDATE or DELETE
	// produced a row set.
	ErrAnomalousResult = errors.New("safesql: unexpected result")

	// ErrDecode is returned by SelectAs when a row cannot be decoded into
	// the target type.
	ErrDecode = errors.New("safesql: cannot decode row")
)

// IsValidationErr returns true if err is or wraps ErrValidation.
func IsValidationErr(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTableNotAllowedErr returns true if err is or wraps ErrTableNotAllowed.
func IsTableNotAllowedErr(err error) bool {
	return errors.Is(err, ErrTableNotAllowed)
}

// IsQueryNotAllowedErr returns true if err is or wraps ErrQueryNotAllowed.
func IsQueryNotAllowedErr(err error) bool {
	return errors.Is(err, ErrQueryNotAllowed)
}

// IsStructureErr returns true if err is or wraps ErrStructure.
func IsStructureErr(err error) bool {
	return errors.Is(err, ErrStructure)
}

// IsRawDisabledErr returns true if err is or wraps ErrRawDisabled.
func IsRawDisabledErr(err error) bool {
	return errors.Is(err, ErrRawDisabled)
}

// IsDriverErr returns true if err is or wraps ErrDriver.
func IsDriverErr(err error) bool {
	return errors.Is(err, ErrDriver)
}

// IsAnomalousResultErr returns true if err is or wraps ErrAnomalousResult.
func IsAnomalousResultErr(err error) bool {
	return errors.Is(err, ErrAnomalousResult)
}

// Kind tells whether the caller or the server is at fault.
type Kind int

const (
	ClientError Kind = iota + 1
	ServerError
)

func (k Kind) String() string {
	switch k {
	case ClientError:
		return "client"
	case ServerError:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the normalized failure of a Client operation. Code follows HTTP
// status semantics so the error can be forwarded to API callers as-is.
type Error struct {
	Kind    Kind
	Source  string
	Code    int
	Message string
	// SQL holds the generated statement when debug SQL is enabled.
	SQL     string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("safesql: error in %s: %s", e.Source, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// newError classifies err for an operation named source.
func newError(source string, err error) *Error {
	if e, ok := AsError(err); ok {
		return e
	}
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrStructure):
		return &Error{Kind: ClientError, Source: source, Code: http.StatusBadRequest, Message: err.Error(), Err: err}
	case errors.Is(err, ErrRawDisabled):
		return &Error{Kind: ClientError, Source: source, Code: http.StatusForbidden, Message: err.Error(), Err: err}
	case errors.Is(err, ErrAnomalousResult), errors.Is(err, ErrDecode):
		return &Error{Kind: ServerError, Source: source, Code: http.StatusInternalServerError, Message: err.Error(), Err: err}
	default:
		return driverError(source, err)
	}
}

// driverError maps a driver failure to an Error. The status code comes from
// the SQLSTATE when the driver exposes one, else from an embedded
// "HTTP status NNN" marker as produced by HTTP-based Postgres proxies.
func driverError(source string, err error) *Error {
	e := &Error{
		Kind:    ServerError,
		Source:  source,
		Code:    http.StatusInternalServerError,
		Message: err.Error(),
		Err:     fmt.Errorf("%w: %w", ErrDriver, err),
	}

	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		e.Message = pgErr.Message
		e.Code = statusForSQLState(pgErr.Code)
	case errors.As(err, &pqErr):
		e.Message = pqErr.Message
		e.Code = statusForSQLState(string(pqErr.Code))
	default:
		if code, msg, ok := parseHTTPStatus(err.Error()); ok {
			e.Code = code
			if msg != "" {
				e.Message = msg
			}
		} else if state := sqlState(err); state != "" {
			e.Code = statusForSQLState(state)
		}
	}

	if e.Code < http.StatusInternalServerError {
		e.Kind = ClientError
	}
	return e
}

// PostgreSQL error codes and classes with a dedicated status mapping.
const (
	pgInsufficientPrivilege = "42501"
	pgClassDataException    = "22"
	pgClassIntegrity        = "23"
	pgClassAuthorization    = "28"
	pgClassSyntaxOrAccess   = "42"
	pgClassConnection       = "08"
)

func statusForSQLState(code string) int {
	if code == pgInsufficientPrivilege {
		return http.StatusForbidden
	}
	if len(code) < 2 {
		return http.StatusInternalServerError
	}
	switch code[:2] {
	case pgClassDataException, pgClassIntegrity, pgClassSyntaxOrAccess:
		return http.StatusBadRequest
	case pgClassAuthorization:
		return http.StatusUnauthorized
	case pgClassConnection:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sqlState extracts a PostgreSQL error code from err.
func sqlState(err error) string {
	// pgx/pgconn and lib/pq
	var stateErr interface{ SQLState() string }
	if errors.As(err, &stateErr) {
		return stateErr.SQLState()
	}

	// Format: "... (SQLSTATE 42P01)" or "SQLSTATE: 42P01"
	errStr := err.Error()
	for _, prefix := range []string{"SQLSTATE ", "SQLSTATE: "} {
		if idx := strings.Index(errStr, prefix); idx >= 0 {
			start := idx + len(prefix)
			if start+5 <= len(errStr) {
				return errStr[start : start+5]
			}
		}
	}
	return ""
}

var httpStatusPattern = regexp.MustCompile(`HTTP status (\d{3})`)

// parseHTTPStatus reads "HTTP status NNN" and the message field of the JSON
// body that follows it.
func parseHTTPStatus(s string) (code int, message string, ok bool) {
	m := httpStatusPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, "", false
	}
	code, _ = strconv.Atoi(m[1])

	start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		var body struct {
			Message string `json:"message"`
		}
		if json.Unmarshal([]byte(s[start:end+1]), &body) == nil {
			message = body.Message
		}
	}
	return code, message, true
}
