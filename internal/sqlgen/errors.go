package sqlgen

import "errors"

// ErrStructure matches every StructuralError.
var ErrStructure = errors.New("safesql: malformed statement")

// StructuralError reports a descriptor whose shape cannot form a valid
// statement, such as an aliased INSERT target or rows with differing columns.
type StructuralError struct {
	Statement string
	Reason    string
}

func (e *StructuralError) Error() string {
	if e.Statement == "" {
		return "safesql: " + e.Reason
	}
	return "safesql: " + e.Statement + ": " + e.Reason
}

// Is reports whether target is ErrStructure.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructure
}

func structural(statement, reason string) *StructuralError {
	return &StructuralError{Statement: statement, Reason: reason}
}
