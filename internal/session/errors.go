package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAmbiguousHandle means an identifier matched more than one registered
// handle and no single choice could be made.
//
// Use errors.Is(err, ErrAmbiguousHandle) to match this error.
var ErrAmbiguousHandle = errors.New("ambiguous handle")

// AmbiguousHandleError lists the handles an identifier matched.
// It unwraps to [ErrAmbiguousHandle] for errors.Is checks.
type AmbiguousHandleError struct {
	Identifier string   // Identifier is the string the caller tried to resolve.
	Candidates []string // Candidates are the matching handles, in registration order.
}

func (e *AmbiguousHandleError) Error() string {
	return fmt.Sprintf("%s: %q matches %s",
		ErrAmbiguousHandle.Error(), e.Identifier, strings.Join(e.Candidates, ", "))
}

func (*AmbiguousHandleError) Unwrap() error { return ErrAmbiguousHandle }
