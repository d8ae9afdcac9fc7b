package handler

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/wiliamdarmawan/2fa-service/internal/apierrors"
	"github.com/wiliamdarmawan/2fa-service/internal/middleware"
	"github.com/wiliamdarmawan/2fa-service/internal/service"
)

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type envelope struct {
	Data *struct {
		Attributes map[string]string `json:"attributes"`
	} `json:"data"`
}

// decodeAttributes unwraps the {data:{attributes}} request envelope.
// A missing envelope and a missing attributes key are distinct failures.
func decodeAttributes(r *http.Request) (map[string]string, error) {
	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil || env.Data == nil {
		return nil, apierrors.InvalidParams("Missing `data` field")
	}
	if env.Data.Attributes == nil {
		return nil, apierrors.InvalidParams("Missing `data.attributes` field")
	}
	return env.Data.Attributes, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

type registerAttributes struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

type registerData struct {
	ID         int                `json:"id"`
	Attributes registerAttributes `json:"attributes"`
}

type registerResponse struct {
	Data registerData `json:"data"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	attrs, err := decodeAttributes(r)
	if err != nil {
		apierrors.Write(w, err)
		return
	}

	email, password := attrs["email"], attrs["password"]
	if email == "" || password == "" {
		apierrors.Write(w, apierrors.MissingParams("Missing email or password"))
		return
	}
	if !emailPattern.MatchString(email) {
		apierrors.Write(w, apierrors.InvalidParams("Provided email is not an email address"))
		return
	}

	user, err := h.svc.Register(email, password)
	if err != nil {
		apierrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Data: registerData{
			ID: user.ID,
			Attributes: registerAttributes{
				Email:    user.Email,
				Username: user.Username,
			},
		},
	})
}

// Login handles password authentication and OTP issuance
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	attrs, err := decodeAttributes(r)
	if err != nil {
		apierrors.Write(w, err)
		return
	}

	email, password := attrs["email"], attrs["password"]
	if email == "" || password == "" {
		apierrors.Write(w, apierrors.MissingParams("Missing email or password"))
		return
	}

	if err := h.svc.Login(r.Context(), email, password); err != nil {
		apierrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "OTP sent to email"})
}

// VerifyOTP exchanges a valid code for an access token. An absent code
// simply fails the comparison; there is no separate missing-field check.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	attrs, err := decodeAttributes(r)
	if err != nil {
		apierrors.Write(w, err)
		return
	}

	token, err := h.svc.VerifyOTP(r.Context(), attrs["email"], attrs["otp"])
	if err != nil {
		apierrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

// Dashboard greets the authenticated user
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	email, ok := r.Context().Value(middleware.EmailContextKey).(string)
	if !ok || email == "" {
		apierrors.Write(w, apierrors.Unauthorized("Invalid or expired token"))
		return
	}

	greeting, err := h.svc.Dashboard(email)
	if err != nil {
		apierrors.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": greeting})
}
