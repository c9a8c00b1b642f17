package translate

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/sqlrelay/pushdown/internal/plan"
)

// ErrNotBuilt signals caller misuse: output attributes, a rendered
// statement, or a row stream were requested from a translator whose build
// did not succeed. It is distinct from the build's own failure, which is
// reported through RootCause.
var ErrNotBuilt = errors.New("translate: query tree not built")

// UnsupportedNodeError is the expected, recoverable signal that a plan
// shape is outside the supported grammar. It occurs routinely for plans
// mixing supported and unsupported operators and is not a defect.
type UnsupportedNodeError struct {
	// Label is the node's display name (e.g. "Generate").
	Label string

	// Kind is the node's concrete type name (e.g. "*exotic.GenerateNode").
	Kind string
}

// Error implements the error interface.
func (e *UnsupportedNodeError) Error() string {
	return fmt.Sprintf("unsupported plan node: %s (%s)", e.Label, e.Kind)
}

// InternalDefectError is an unexpected violation of an assumed-exhaustive
// branch: a join kind no dispatch arm handles, or a successfully-built tree
// without exactly one source node. It indicates a bug, but the build still
// fails gracefully instead of panicking across the API.
type InternalDefectError struct {
	// Message describes the violated assumption.
	Message string

	// Trace is the stack captured where the defect was detected.
	Trace string
}

// Error implements the error interface.
func (e *InternalDefectError) Error() string {
	return "internal defect: " + e.Message
}

// IsUnsupportedNode reports whether err is an UnsupportedNodeError.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedNode(err error) bool {
	var ue *UnsupportedNodeError
	return errors.As(err, &ue)
}

// IsInternalDefect reports whether err is an InternalDefectError.
// Uses errors.As to handle wrapped errors.
func IsInternalDefect(err error) bool {
	var de *InternalDefectError
	return errors.As(err, &de)
}

// unsupported builds the failure for a plan node outside the grammar.
func unsupported(node plan.Node) *UnsupportedNodeError {
	return &UnsupportedNodeError{
		Label: node.Name(),
		Kind:  fmt.Sprintf("%T", node),
	}
}

// defectf builds an InternalDefectError with the current stack.
func defectf(format string, args ...any) *InternalDefectError {
	return &InternalDefectError{
		Message: fmt.Sprintf(format, args...),
		Trace:   string(debug.Stack()),
	}
}
