package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/wiliamdarmawan/2fa-service/internal/apierrors"
	"github.com/wiliamdarmawan/2fa-service/internal/config"
	"github.com/wiliamdarmawan/2fa-service/internal/models"
	"github.com/wiliamdarmawan/2fa-service/internal/otp"
	"github.com/wiliamdarmawan/2fa-service/internal/queue"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// UserStore is the persistence surface the service needs
type UserStore interface {
	CreateUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)
	EmailExists(email string) (bool, error)
	UsernameExists(username string) (bool, error)
}

// EmailPublisher enqueues email delivery tasks
type EmailPublisher interface {
	PublishEmail(task queue.EmailTask) error
}

// Service handles business logic
type Service struct {
	store  UserStore
	otps   *otp.Store
	queue  EmailPublisher
	log    *logrus.Logger
	config *config.Config
}

// NewService initializes a new service
func NewService(store UserStore, otps *otp.Store, queue EmailPublisher, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{store: store, otps: otps, queue: queue, log: log, config: cfg}
}

// Register creates a new user with a derived username and hashed password
func (s *Service) Register(email, password string) (*models.User, error) {
	username, err := deriveUsername(email)
	if err != nil {
		return nil, err
	}

	if err := s.validateNewUser(email, username); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hashedPassword),
	}

	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// validateNewUser re-runs the full field validation against the store.
// Check order and messages match the API contract; each failure is a
// distinct invalid-parameter error.
func (s *Service) validateNewUser(email, username string) error {
	if email == "" {
		return apierrors.InvalidParams("No email provided")
	}
	if !emailPattern.MatchString(email) {
		return apierrors.InvalidParams("Provided email is not an email address")
	}
	exists, err := s.store.EmailExists(email)
	if err != nil {
		return err
	}
	if exists {
		return apierrors.InvalidParams("Email already exists")
	}
	if len(email) > 320 {
		return apierrors.InvalidParams("Email must be less than or equal to 320 characters")
	}

	if username == "" {
		return apierrors.InvalidParams("No username provided")
	}
	exists, err = s.store.UsernameExists(username)
	if err != nil {
		return err
	}
	if exists {
		return apierrors.InvalidParams("Username is already in use, please retry your request")
	}
	if len(username) < 3 || len(username) > 30 {
		return apierrors.InvalidParams("Username must be between 3 and 30 characters")
	}
	return nil
}

// deriveUsername builds a username from the email's local part truncated
// to 25 characters plus a random 5-digit suffix. A suffix collision is
// not retried; it fails the whole registration during validation.
func deriveUsername(email string) (string, error) {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	if len(local) > 25 {
		local = local[:25]
	}

	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", fmt.Errorf("failed to generate username suffix: %w", err)
	}
	return fmt.Sprintf("%s%d", local, n.Int64()+10000), nil
}

// Login verifies credentials, stores a fresh OTP and enqueues its
// delivery. The response is optimistic: delivery happens in a worker.
func (s *Service) Login(ctx context.Context, email, password string) error {
	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		return apierrors.Unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return apierrors.Unauthorized("Invalid credentials")
	}

	code, err := otp.Generate()
	if err != nil {
		return err
	}
	if err := s.otps.Save(ctx, email, code); err != nil {
		return err
	}

	task := queue.EmailTask{
		To:      user.Email,
		Subject: "Your One-Time Passcode",
		Body: fmt.Sprintf(
			"Dear %s,\n\nYour one-time passcode is %s.\nIt expires in 30 minutes.\n\nBest regards,\nAuth Service",
			user.Username, code,
		),
	}
	if err := s.queue.PublishEmail(task); err != nil {
		return err
	}

	s.log.Infof("OTP issued for user: %s", user.Email)
	return nil
}

// VerifyOTP compares the supplied code with the cached one and issues a
// signed access token on match. The code is not invalidated on use; it
// stays valid until it expires or is overwritten.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	stored, err := s.otps.Get(ctx, email)
	if err != nil {
		return "", err
	}
	if stored == "" || stored != code {
		return "", apierrors.Unauthorized("Invalid or expired OTP")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.config.TokenTTL)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", email)
	return tokenString, nil
}

// Dashboard re-looks-up the token's subject and returns the greeting.
// A stale or forged subject with no matching user is unauthorized.
func (s *Service) Dashboard(email string) (string, error) {
	user, err := s.store.FindUserByEmail(email)
	if err != nil {
		return "", apierrors.Unauthorized("Invalid credentials")
	}
	return fmt.Sprintf("Hello %s, welcome to your dashboard", user.Username), nil
}
