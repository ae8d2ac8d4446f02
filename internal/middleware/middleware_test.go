package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
)

func TestRecoverPanic(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name:    "panic with error",
			handler: func(w http.ResponseWriter, r *http.Request) { panic(io.ErrUnexpectedEOF) },
		},
		{
			name:    "panic with string",
			handler: func(w http.ResponseWriter, r *http.Request) { panic("boom") },
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			RecoverPanic(test.handler).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusInternalServerError, recorder.Code)
			body := map[string]interface{}{}
			require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
			assert.Equal(t, "failed", body["status"])
			assert.Equal(t, "Internal Server Error", body["message"])
		})
	}
}

func TestLoggingKeepsBodyAndRequestID(t *testing.T) {
	payload := `{"email":"alice1@example.com","password":"password123"}`
	var gotBody string
	var gotRequestID string
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(raw)
		gotRequestID = log.RequestIDFromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(payload))
	r.Header.Set(inHttp.KeyHeaderRequestID, "request-1")
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, r)

	assert.Equal(t, payload, gotBody)
	assert.Equal(t, "request-1", gotRequestID)
	assert.Equal(t, "request-1", recorder.Header().Get(inHttp.KeyHeaderRequestID))
}

func TestLoggingGeneratesRequestID(t *testing.T) {
	var gotRequestID string
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = log.RequestIDFromContext(r.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, gotRequestID, recorder.Header().Get(inHttp.KeyHeaderRequestID))
}
