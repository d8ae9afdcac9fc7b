package apierrors

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Error is a domain failure that maps to a fixed wire representation.
type Error struct {
	Message  string
	Code     string
	Status   int
	Handling string
}

func (e *Error) Error() string {
	return e.Message
}

// MissingParams reports a required parameter that was absent or empty
func MissingParams(message string) *Error {
	return &Error{
		Message:  message,
		Code:     "TFAE2",
		Status:   http.StatusBadRequest,
		Handling: "Please include the missing parameter.",
	}
}

// InvalidParams reports a parameter that was present but failed validation
func InvalidParams(message string) *Error {
	return &Error{
		Message:  message,
		Code:     "TFAE1",
		Status:   http.StatusBadRequest,
		Handling: "Please provide a valid parameter.",
	}
}

// Unauthorized reports failed authentication
func Unauthorized(message string) *Error {
	return &Error{
		Message:  message,
		Code:     "TFAE3",
		Status:   http.StatusUnauthorized,
		Handling: "Please provide correct credentials",
	}
}

// RateLimited reports a client that exceeded the request window
func RateLimited(message string) *Error {
	return &Error{
		Message:  message,
		Code:     "TFAE4",
		Status:   http.StatusTooManyRequests,
		Handling: "Please wait before requesting another OTP",
	}
}

// Unexpected is the fallback for errors with no explicit mapping.
// It never carries internal detail.
func Unexpected() *Error {
	return &Error{
		Message:  "An unexpected error occurred",
		Code:     "TFAE0",
		Status:   http.StatusInternalServerError,
		Handling: "Please contact our team for further assistance",
	}
}

type wireError struct {
	Message  string `json:"error"`
	Code     string `json:"errorCode"`
	Handling string `json:"errorHandling"`
}

type wirePayload struct {
	Errors []wireError `json:"errors"`
}

// Write renders err as the JSON error payload. Errors that are not an
// *Error are masked behind the generic unexpected response.
func Write(w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = Unexpected()
	}

	payload := wirePayload{
		Errors: []wireError{
			{
				Message:  apiErr.Message,
				Code:     apiErr.Code,
				Handling: apiErr.Handling,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(payload)
}
