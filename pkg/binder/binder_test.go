package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trakkr/pkg/binder"
)

type setRequest struct {
	ExerciseID string  `json:"exerciseId"`
	Reps       int     `json:"reps"`
	Weight     float64 `json:"weight"`
}

func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/sets", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	return req
}

func TestJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes body", func(t *testing.T) {
		t.Parallel()
		var req setRequest
		err := binder.JSON()(jsonRequest(`{"exerciseId":"bench","reps":5,"weight":100.5}`), &req)
		require.NoError(t, err)
		assert.Equal(t, setRequest{ExerciseID: "bench", Reps: 5, Weight: 100.5}, req)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()
		var req setRequest
		r := httptest.NewRequest(http.MethodPost, "/sets", nil)
		require.NoError(t, binder.JSON()(r, &req))
		assert.Zero(t, req)
	})

	t.Run("unknown field", func(t *testing.T) {
		t.Parallel()
		var req setRequest
		err := binder.JSON()(jsonRequest(`{"exerciseId":"bench","sets":3}`), &req)
		assert.ErrorIs(t, err, binder.ErrFailedToParseJSON)
	})

	t.Run("wrong type", func(t *testing.T) {
		t.Parallel()
		var req setRequest
		err := binder.JSON()(jsonRequest(`{"reps":"five"}`), &req)
		assert.ErrorIs(t, err, binder.ErrFailedToParseJSON)
	})

	t.Run("trailing data", func(t *testing.T) {
		t.Parallel()
		var req setRequest
		err := binder.JSON()(jsonRequest(`{"reps":5}{"reps":6}`), &req)
		assert.ErrorIs(t, err, binder.ErrFailedToParseJSON)
	})

	t.Run("content type", func(t *testing.T) {
		t.Parallel()
		var req setRequest

		r := httptest.NewRequest(http.MethodPost, "/sets", strings.NewReader(`{}`))
		assert.ErrorIs(t, binder.JSON()(r, &req), binder.ErrMissingContentType)

		r.Header.Set("Content-Type", "text/plain")
		assert.ErrorIs(t, binder.JSON()(r, &req), binder.ErrUnsupportedMediaType)
	})
}

func TestPath(t *testing.T) {
	t.Parallel()

	type request struct {
		DetailID string `path:"detailId"`
		Index    int    `path:"index"`
		Skipped  string `path:"-"`
		Untagged string
	}
	params := map[string]string{"detailId": "d-1", "index": "3", "Untagged": "x"}
	extract := func(_ *http.Request, name string) string { return params[name] }

	var req request
	err := binder.Path(extract)(httptest.NewRequest(http.MethodGet, "/", nil), &req)
	require.NoError(t, err)
	assert.Equal(t, request{DetailID: "d-1", Index: 3}, req)

	t.Run("invalid value", func(t *testing.T) {
		t.Parallel()
		bad := func(_ *http.Request, name string) string { return "abc" }
		var req request
		err := binder.Path(bad)(httptest.NewRequest(http.MethodGet, "/", nil), &req)
		assert.ErrorIs(t, err, binder.ErrFailedToParsePath)
	})

	t.Run("nil extractor", func(t *testing.T) {
		t.Parallel()
		var req request
		err := binder.Path(nil)(httptest.NewRequest(http.MethodGet, "/", nil), &req)
		assert.ErrorIs(t, err, binder.ErrFailedToParsePath)
	})
}

func TestQuery(t *testing.T) {
	t.Parallel()

	type request struct {
		Limit   int      `query:"limit"`
		Types   []string `query:"type"`
		Verbose *bool    `query:"verbose"`
	}

	var req request
	r := httptest.NewRequest(http.MethodGet, "/?limit=10&type=start,finish&type=pause&verbose=true", nil)
	require.NoError(t, binder.Query()(r, &req))
	assert.Equal(t, 10, req.Limit)
	assert.Equal(t, []string{"start", "finish", "pause"}, req.Types)
	require.NotNil(t, req.Verbose)
	assert.True(t, *req.Verbose)

	var bad request
	r = httptest.NewRequest(http.MethodGet, "/?limit=ten", nil)
	assert.ErrorIs(t, binder.Query()(r, &bad), binder.ErrFailedToParseQuery)
}
