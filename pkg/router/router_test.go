package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCustom = errors.New("custom error")

func Test_ErrorMapper(t *testing.T) {
	router := New()
	router.RegisterErrorMapper(errCustom, func(err error) JsonError {
		return JsonError{
			Code: 400,
			Err:  err.Error(),
		}
	})

	tcs := []struct {
		name string
		err  error
		exp  JsonError
	}{
		{
			name: "registered sentinel",
			err:  errCustom,
			exp: JsonError{
				Code: 400,
				Err:  "custom error",
			},
		},
		{
			name: "wrapped sentinel",
			err:  fmt.Errorf("handler: %w", errCustom),
			exp: JsonError{
				Code: 400,
				Err:  "handler: custom error",
			},
		},
		{
			name: "unmapped error",
			err:  errors.New("random error"),
			exp:  router.defaultError,
		},
		{
			name: "json error",
			err: JsonError{
				Code: 400,
				Err:  "API Error",
			},
			exp: JsonError{
				Code: 400,
				Err:  "API Error",
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := router.mapError(tc.err)
			assert.Equal(t, tc.exp, got)
		})
	}
}

func Test_HandlerError(t *testing.T) {
	router := New()
	router.RegisterErrorMapper(errCustom, func(err error) JsonError {
		return NewJsonError(http.StatusNotFound, "not here")
	})
	router.Route("/chat", func(r *Router) {
		r.Patch("/{id}", func(w http.ResponseWriter, r *http.Request) error {
			return errCustom
		})
		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusOK)
			return nil
		})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/chat/1", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body JsonError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, NewJsonError(http.StatusNotFound, "not here"), body)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat/1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
