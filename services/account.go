package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pawanx64/File-Sharing-Backend/auth"
	"github.com/pawanx64/File-Sharing-Backend/mailer"
	"github.com/pawanx64/File-Sharing-Backend/models"
	"github.com/pawanx64/File-Sharing-Backend/repository"
)

const DefaultOTPTTL = 2 * time.Minute

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	SetOTP(ctx context.Context, id uuid.UUID, otp models.OTP) error
	ResetPassword(ctx context.Context, id uuid.UUID, hash string, now time.Time) error
}

// AccountService covers signup, login, password change and the OTP based
// password reset.
type AccountService struct {
	users  UserRepository
	mailer mailer.Mailer
	tokens *auth.TokenIssuer
	otpTTL time.Duration
	now    func() time.Time
	log    *zap.SugaredLogger
}

func NewAccountService(users UserRepository, m mailer.Mailer, tokens *auth.TokenIssuer, otpTTL time.Duration, log *zap.SugaredLogger) *AccountService {
	if otpTTL <= 0 {
		otpTTL = DefaultOTPTTL
	}
	return &AccountService{
		users:  users,
		mailer: m,
		tokens: tokens,
		otpTTL: otpTTL,
		now:    time.Now,
		log:    log.Named("account"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationError("Email and password required.")
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, newError(CodeConflict, errx.T_Conflict, "User already exists.")
	case !errors.Is(err, repository.ErrNotFound):
		return nil, internalError(err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, internalError(err)
	}

	user := &models.User{Email: email, PasswordHash: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(CodeConflict, errx.T_Conflict, "User already exists.")
		}
		return nil, internalError(err)
	}

	s.log.Infow("user signed up", "user_id", user.ID)
	return user, nil
}

// Login returns a bearer token for valid credentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", validationError("Email and password required.")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", unauthorizedError("Invalid credentials.")
		}
		return "", internalError(err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", unauthorizedError("Invalid credentials.")
	}

	token, err := s.tokens.GenerateToken(user.ID)
	if err != nil {
		return "", internalError(err)
	}
	return token, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return validationError("Both current and new passwords are required.")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("User not found.")
		}
		return internalError(err)
	}
	if !auth.CheckPassword(user.PasswordHash, currentPassword) {
		return unauthorizedError("Current password is incorrect.")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return internalError(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("User not found.")
		}
		return internalError(err)
	}
	return nil
}

// ForgotPassword issues a fresh OTP and mails it when email belongs to an
// account. Unknown addresses succeed silently.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return validationError("Email is required.")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return internalError(err)
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		return internalError(err)
	}
	otp := models.OTP{Code: code, ExpiresAt: s.now().Add(s.otpTTL)}
	if err := s.users.SetOTP(ctx, user.ID, otp); err != nil {
		return internalError(err)
	}

	msg, err := mailer.PasswordResetMessage(user.Email, code, s.otpTTL)
	if err != nil {
		return internalError(err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return wrapError(err, CodeMailFailed, errx.T_Internal)
	}

	s.log.Infow("password reset otp sent", "user_id", user.ID)
	return nil
}

// VerifyOTP checks code against the stored OTP without consuming it.
func (s *AccountService) VerifyOTP(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)
	if email == "" || code == "" {
		return validationError("Email and OTP required.")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("User not found.")
		}
		return internalError(err)
	}

	otp := user.ActiveOTP(s.now())
	if otp == nil || !auth.OTPEqual(otp.Code, code) {
		return newError(CodeOTPInvalid, errx.T_Validation, "Invalid or expired OTP.")
	}
	return nil
}

// ResetPassword sets a new password for a user holding an unexpired OTP and
// clears the OTP. When code is non-empty it must match the stored one.
func (s *AccountService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = normalizeEmail(email)
	if email == "" || newPassword == "" {
		return validationError("Email and new password required.")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundError("User not found.")
		}
		return internalError(err)
	}

	now := s.now()
	otp := user.ActiveOTP(now)
	if otp == nil || (code != "" && !auth.OTPEqual(otp.Code, code)) {
		return unauthorizedError("Unauthorized. Please verify OTP first.")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return internalError(err)
	}
	if err := s.users.ResetPassword(ctx, user.ID, hash, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return unauthorizedError("Unauthorized. Please verify OTP first.")
		}
		return internalError(err)
	}

	s.log.Infow("password reset", "user_id", user.ID)
	return nil
}
