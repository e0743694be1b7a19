package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trakkr/handler"
	"github.com/dmitrymomot/trakkr/pkg/binder"
)

type greetRequest struct {
	Name string `json:"name"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.JSONResponse {
	t.Helper()
	var got handler.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	return got
}

func TestWrap(t *testing.T) {
	t.Parallel()

	greet := func(_ handler.Context, req greetRequest) handler.Response {
		if req.Name == "" {
			return handler.JSONError(handler.ErrUnprocessableEntity.WithMessage("name is required"))
		}
		return handler.JSON(map[string]string{"greeting": "hi " + req.Name})
	}
	h := handler.Wrap(greet, handler.WithBinders[handler.Context, greetRequest](binder.JSON()))

	t.Run("binds and renders", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ann"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]any{"greeting": "hi ann"}, decode(t, w).Data)
	})

	t.Run("handler error", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		w := httptest.NewRecorder()
		h(w, r)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		got := decode(t, w)
		require.NotNil(t, got.Error)
		assert.Equal(t, "unprocessable_entity", got.Error.Code)
		assert.Equal(t, "name is required", got.Error.Message)
	})

	t.Run("bind error", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":1}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "bad_request", decode(t, w).Error.Code)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		nilHandler := handler.Wrap(func(handler.Context, struct{}) handler.Response { return nil })
		w := httptest.NewRecorder()
		nilHandler(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("decorators run outermost first", func(t *testing.T) {
		t.Parallel()
		var order []string
		mark := func(name string) handler.Decorator[handler.Context, struct{}] {
			return func(next handler.HandlerFunc[handler.Context, struct{}]) handler.HandlerFunc[handler.Context, struct{}] {
				return func(ctx handler.Context, req struct{}) handler.Response {
					order = append(order, name)
					return next(ctx, req)
				}
			}
		}
		h := handler.Wrap(
			func(handler.Context, struct{}) handler.Response { return handler.Empty() },
			handler.WithDecorators(mark("outer"), mark("inner")),
		)
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, []string{"outer", "inner"}, order)
	})

	t.Run("custom error handler", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(
			func(handler.Context, greetRequest) handler.Response { return handler.Empty() },
			handler.WithBinders[handler.Context, greetRequest](func(*http.Request, any) error {
				return errors.New("boom")
			}),
			handler.WithErrorHandler[handler.Context, greetRequest](func(ctx handler.Context, err error) {
				ctx.ResponseWriter().WriteHeader(http.StatusTeapot)
			}),
		)
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTeapot, w.Code)
	})
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"http error", handler.ErrConflict, http.StatusConflict, "conflict"},
		{"wrapped http error", handler.NewHTTPError(http.StatusNotFound, "workout.session_not_found").WithCause(errors.New("x")), http.StatusNotFound, "workout.session_not_found"},
		{"media type", binder.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType, "unsupported_media_type"},
		{"bad json", binder.ErrFailedToParseJSON, http.StatusBadRequest, "bad_request"},
		{"unknown", errors.New("db password leaked"), http.StatusInternalServerError, "internal_server_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			require.NoError(t, handler.JSONError(tt.err).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

			assert.Equal(t, tt.status, w.Code)
			got := decode(t, w)
			require.NotNil(t, got.Error)
			assert.Equal(t, tt.code, got.Error.Code)
			assert.NotContains(t, got.Error.Message, "password")
		})
	}
}

func TestJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	resp := handler.JSON(map[string]int{"sets": 3},
		handler.WithJSONStatus(http.StatusCreated),
		handler.WithJSONMeta(map[string]any{"version": "1"}))
	require.NoError(t, resp.Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	got := decode(t, w)
	assert.Equal(t, map[string]any{"sets": float64(3)}, got.Data)
	assert.Equal(t, map[string]any{"version": "1"}, got.Meta)
	assert.Nil(t, got.Error)
}

func TestContextValue(t *testing.T) {
	t.Parallel()

	key := handler.NewContextKey("user")
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(contextWith(r, key, "u1"))
	ctx := handler.NewContext(httptest.NewRecorder(), r)

	assert.Equal(t, "u1", handler.ContextValue[string](ctx, key))
	_, ok := handler.ContextValueOK[int](ctx, key)
	assert.False(t, ok)
	assert.Equal(t, "user", key.String())
}
