package registry

import (
	"errors"
	"fmt"
)

// Kind classifies a registry failure. Kind values are themselves errors, so
// callers can test with errors.Is(err, registry.ErrPortNotFound).
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	ErrPortNotFound           Kind = "port not found"
	ErrBaselineNotFound       Kind = "baseline not found"
	ErrPortNotFoundInBaseline Kind = "port not found in baseline"
	ErrMalformedStore         Kind = "malformed store"
	ErrExternalCommand        Kind = "external command failed"
	ErrBaselineFileMissing    Kind = "baseline file missing"
	ErrIncompleteUpdate       Kind = "incomplete update"
)

// Error carries the structured context of a registry failure. The message is
// only assembled when Error is called.
type Error struct {
	Kind     Kind
	Port     string
	Version  string
	Baseline string
	Path     string
	Step     string
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrPortNotFound:
		return fmt.Sprintf("port '%s' not found", e.Port)
	case ErrBaselineNotFound:
		return fmt.Sprintf("baseline '%s' not found", e.Baseline)
	case ErrPortNotFoundInBaseline:
		return fmt.Sprintf("port '%s' not found in baseline '%s'", e.Port, e.Baseline)
	case ErrMalformedStore:
		if e.Path == "" && e.Baseline != "" {
			return fmt.Sprintf("malformed baseline '%s': %v", e.Baseline, e.Err)
		}
		return fmt.Sprintf("malformed %s: %v", e.Path, e.Err)
	case ErrBaselineFileMissing:
		return fmt.Sprintf("baseline file not found: %s", e.Path)
	case ErrExternalCommand:
		return e.Err.Error()
	case ErrIncompleteUpdate:
		return fmt.Sprintf("update of '%s' to %s was committed but not finalized (%s): %v; "+
			"the port commit is at HEAD without version/baseline changes, fix the cause and re-run to resume",
			e.Port, e.Version, e.Step, e.Err)
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches a Kind sentinel.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf returns the Kind of the first registry error in err's chain, or "".
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

// External marks err as a failed collaborator invocation.
func External(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: ErrExternalCommand, Err: err}
}

func malformed(path string, err error) error {
	return &Error{Kind: ErrMalformedStore, Path: path, Err: err}
}
