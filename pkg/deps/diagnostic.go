package deps

import (
	"fmt"

	"github.com/john-wilkinson/pym/pkg/errors"
)

// DiagnosticKind classifies a resolution problem.
type DiagnosticKind int

const (
	// Conflict: a package was requested with a version or ref incompatible
	// with the one already resolved.
	Conflict DiagnosticKind = iota
	// FetchFailed: the source of a package could not be fetched.
	FetchFailed
	// DepthExceeded: a package's dependencies were not followed because it
	// sits at the maximum depth.
	DepthExceeded
)

func (k DiagnosticKind) String() string {
	switch k {
	case Conflict:
		return "conflict"
	case FetchFailed:
		return "fetch-failed"
	case DepthExceeded:
		return "depth-exceeded"
	default:
		return fmt.Sprintf("DiagnosticKind(%d)", int(k))
	}
}

// Diagnostic is a non-fatal-by-default finding produced while building a
// graph. Fatal marks diagnostics that must fail the command.
type Diagnostic struct {
	Kind      DiagnosticKind
	Key       string // Identity key of the package concerned
	From      string // Identity key of the requesting package
	Existing  string // Version already resolved (Conflict)
	Requested string // Constraint or ref that was requested (Conflict)
	Err       error  // Underlying failure (FetchFailed)
	Seq       int    // Sequence number of the request that produced it
	Fatal     bool
}

// String renders the diagnostic as a single line.
func (d Diagnostic) String() string {
	switch d.Kind {
	case Conflict:
		return fmt.Sprintf("%s: %s requested %q by %s, keeping %s", d.Kind, d.Key, d.Requested, d.From, d.Existing)
	case FetchFailed:
		if d.Err == nil {
			return fmt.Sprintf("%s: %s (required by %s)", d.Kind, d.Key, d.From)
		}
		return fmt.Sprintf("%s: %s (required by %s): %s", d.Kind, d.Key, d.From, errors.UserMessage(d.Err))
	default:
		return fmt.Sprintf("%s: dependencies of %s not followed", d.Kind, d.Key)
	}
}

// Diagnostics is an ordered list of diagnostics, sorted by request sequence.
type Diagnostics []Diagnostic

// Fatal returns the fatal-class diagnostics.
func (ds Diagnostics) Fatal() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Fatal {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the warning-class diagnostics.
func (ds Diagnostics) Warnings() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if !d.Fatal {
			out = append(out, d)
		}
	}
	return out
}

// HasFatal reports whether any diagnostic is fatal-class.
func (ds Diagnostics) HasFatal() bool {
	for _, d := range ds {
		if d.Fatal {
			return true
		}
	}
	return false
}

// OfKind returns the diagnostics of kind k.
func (ds Diagnostics) OfKind(k DiagnosticKind) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Kind == k {
			out = append(out, d)
		}
	}
	return out
}
