package apierrors

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

func decodeErrors(t *testing.T, rec *httptest.ResponseRecorder) []map[string]string {
	t.Helper()
	var payload struct {
		Errors []map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Errors, 1)
	return payload.Errors
}

func TestWriteKnownKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     string
		message  string
		handling string
	}{
		{
			name:     "missing params",
			err:      MissingParams("Missing email or password"),
			status:   http.StatusBadRequest,
			code:     "TFAE2",
			message:  "Missing email or password",
			handling: "Please include the missing parameter.",
		},
		{
			name:     "invalid params",
			err:      InvalidParams("Email already exists"),
			status:   http.StatusBadRequest,
			code:     "TFAE1",
			message:  "Email already exists",
			handling: "Please provide a valid parameter.",
		},
		{
			name:     "unauthorized",
			err:      Unauthorized("Invalid credentials"),
			status:   http.StatusUnauthorized,
			code:     "TFAE3",
			message:  "Invalid credentials",
			handling: "Please provide correct credentials",
		},
		{
			name:     "rate limited",
			err:      RateLimited("Rate limit exceeded"),
			status:   http.StatusTooManyRequests,
			code:     "TFAE4",
			message:  "Rate limit exceeded",
			handling: "Please wait before requesting another OTP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Write(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			e := decodeErrors(t, rec)[0]
			assert.Equal(t, tt.message, e["error"])
			assert.Equal(t, tt.code, e["errorCode"])
			assert.Equal(t, tt.handling, e["errorHandling"])
		})
	}
}

func TestWriteUnknownErrorIsMasked(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeErrors(t, rec)[0]
	assert.Equal(t, "An unexpected error occurred", e["error"])
	assert.Equal(t, "TFAE0", e["errorCode"])
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestWriteUnwrapsWrappedError(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, fmt.Errorf("login: %w", Unauthorized("Invalid credentials")))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TFAE3", decodeErrors(t, rec)[0]["errorCode"])
}
