package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chovha/internal/domain"
	"chovha/internal/metrics"
	"chovha/internal/otp"
	"chovha/internal/repository"
)

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
	otpPattern   = regexp.MustCompile(`^[0-9]{6}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// TokenIssuer signs bearer tokens for verified users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// AuthService handles phone verification and sign-in.
type AuthService struct {
	users   repository.UserRepository
	otps    otp.Store
	sender  otp.Sender
	tokens  TokenIssuer
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// NewAuthService creates a new AuthService. m may be nil.
func NewAuthService(
	users repository.UserRepository,
	otps otp.Store,
	sender otp.Sender,
	tokens TokenIssuer,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *AuthService {
	return &AuthService{
		users:   users,
		otps:    otps,
		sender:  sender,
		tokens:  tokens,
		metrics: m,
		log:     log,
	}
}

// NormalizePhone strips everything but digits and checks the length.
func NormalizePhone(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrPhoneRequired
	}
	digits := nonDigits.ReplaceAllString(phone, "")
	if !phonePattern.MatchString(digits) {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

// SendOTP issues a code for phone and hands it to the sender.
func (s *AuthService) SendOTP(ctx context.Context, phone string) error {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return err
	}

	code, err := s.otps.Generate(ctx, normalized)
	if err != nil {
		s.metrics.OTP("send", "error")
		return err
	}

	if err := s.sender.Send(ctx, normalized, code); err != nil {
		s.metrics.OTP("send", "error")
		return err
	}

	s.metrics.OTP("send", "ok")
	return nil
}

// UserData is the profile a new user supplies on first verification.
type UserData struct {
	FirstName string
	LastName  string
	Email     string
	UserType  domain.UserType
}

// VerifyOTPRequest contains the parameters for verifying a code.
type VerifyOTPRequest struct {
	Phone    string
	OTP      string
	UserData *UserData
}

// AuthResult is a signed-in user and their bearer token.
type AuthResult struct {
	User    *domain.User
	Token   string
	Created bool
}

// VerifyOTP consumes the code, signs the user in and registers them on
// first use.
func (s *AuthService) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*AuthResult, error) {
	if strings.TrimSpace(req.Phone) == "" || req.OTP == "" {
		return nil, ErrOTPRequired
	}

	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	if !otpPattern.MatchString(req.OTP) {
		s.metrics.OTP("verify", "malformed")
		return nil, ErrInvalidOTP
	}

	if err := s.otps.Verify(ctx, phone, req.OTP); err != nil {
		if !isOTPFailure(err) {
			return nil, err
		}
		s.metrics.OTP("verify", "invalid")
		s.log.WithField("phone", phone).WithError(err).Info("otp verification failed")
		return nil, ErrInvalidOTP
	}
	s.metrics.OTP("verify", "ok")

	user, err := s.users.GetByPhone(ctx, phone)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		user, err = s.register(ctx, phone, req.UserData)
		if err != nil {
			return nil, err
		}
		created = true
	default:
		return nil, err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token, Created: created}, nil
}

func (s *AuthService) register(ctx context.Context, phone string, data *UserData) (*domain.User, error) {
	if data == nil || strings.TrimSpace(data.FirstName) == "" || data.UserType == "" {
		return nil, ErrUserDataRequired
	}
	if !data.UserType.IsValid() {
		return nil, ErrInvalidUserType
	}

	user := &domain.User{
		ID:         uuid.New().String(),
		Phone:      phone,
		FirstName:  strings.TrimSpace(data.FirstName),
		LastName:   strings.TrimSpace(data.LastName),
		Email:      strings.TrimSpace(data.Email),
		UserType:   data.UserType,
		IsVerified: true,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"user_type": user.UserType,
	}).Info("user registered")

	return user, nil
}

func isOTPFailure(err error) bool {
	return errors.Is(err, otp.ErrNotFound) ||
		errors.Is(err, otp.ErrExpired) ||
		errors.Is(err, otp.ErrMismatch) ||
		errors.Is(err, otp.ErrTooManyAttempts)
}
