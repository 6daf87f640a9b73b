package ventify

import (
	"errors"
	"fmt"
	"net/http"

	pkgerrors "github.com/arcay3dlabs/storefront/pkg/errors"
)

// Failure is the error half of every platform call. Exactly one of the
// classification flags or a StatusHint describes what went wrong.
type Failure struct {
	Op           string
	Message      string
	StatusHint   int
	Timeout      bool
	Unconfigured bool
}

func (f *Failure) Error() string {
	switch {
	case f.Timeout:
		return fmt.Sprintf("ventify %s: timeout", f.Op)
	case f.StatusHint > 0:
		return fmt.Sprintf("ventify %s: status %d: %s", f.Op, f.StatusHint, f.Message)
	default:
		return fmt.Sprintf("ventify %s: %s", f.Op, f.Message)
	}
}

// NotFound reports whether the platform answered 404.
func (f *Failure) NotFound() bool {
	return f.StatusHint == http.StatusNotFound
}

// HTTPStatus is the status a same-origin proxy should answer with.
func (f *Failure) HTTPStatus() int {
	switch {
	case f.Unconfigured:
		return http.StatusServiceUnavailable
	case f.Timeout:
		return http.StatusGatewayTimeout
	case f.StatusHint > 0:
		return f.StatusHint
	default:
		return http.StatusInternalServerError
	}
}

// Code maps the failure onto the service error taxonomy.
func (f *Failure) Code() pkgerrors.Code {
	switch {
	case f.Timeout:
		return pkgerrors.CodeUpstreamTimeout
	case f.NotFound():
		return pkgerrors.CodeNotFound
	default:
		return pkgerrors.CodeDependency
	}
}

// FailureFrom extracts the platform failure from err, if any.
func FailureFrom(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return nil
}

func (f *Failure) wrap(message string) error {
	wrapped := pkgerrors.Wrap(f.Code(), f, message)
	if f.StatusHint > 0 {
		wrapped = wrapped.WithDetails(map[string]any{"upstream_status": f.StatusHint})
	}
	return wrapped
}
