package workout

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrymomot/trakkr/handler"
	"github.com/dmitrymomot/trakkr/svc/workout"
)

// httpError maps a service error to an HTTPError keyed by its kind.
// Details are shown for client errors only.
func httpError(err error) handler.HTTPError {
	var code int
	switch {
	case errors.Is(err, workout.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, workout.ErrConflict), errors.Is(err, workout.ErrInvalidState):
		code = http.StatusConflict
	case errors.Is(err, workout.ErrInvalidInput):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, workout.ErrStoreUnavailable):
		code = http.StatusServiceUnavailable
	case errors.Is(err, workout.ErrDurableWrite):
		code = http.StatusBadGateway
	default:
		code = http.StatusInternalServerError
	}

	herr := handler.NewHTTPError(code, workout.ErrorKind(err)).WithCause(err)
	if code < http.StatusInternalServerError {
		herr = herr.WithMessage(detail(err))
	}
	return herr
}

// detail drops the kind tag from a joined error message.
func detail(err error) string {
	lines := strings.Split(err.Error(), "\n")
	if len(lines) > 1 {
		lines = lines[1:]
	}
	return strings.Join(lines, "; ")
}
