package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cognisync/cognisync-api/internal/config"
	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/cognisync/cognisync-api/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type AuthService struct {
	userRepo repository.UserRepository
	audit    *AuditService
	cfg      *config.Config
}

func NewAuthService(userRepo repository.UserRepository, audit *AuditService, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		audit:    audit,
		cfg:      cfg,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

type LoginInput struct {
	Email    string
	Password string
	MFACode  string
}

type AuthResult struct {
	User        *domain.User
	AccessToken string
}

type MFASetup struct {
	Secret string
	URL    string
}

// Register creates a clinician account pending admin approval. Users are
// never hard-deleted; status transitions are the only lifecycle changes.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Email == "" || input.Password == "" || input.FullName == "" {
		return nil, domain.ErrMissingField
	}

	existing, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, domain.ErrEmailExists
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		Role:         domain.RoleClinician,
		Status:       domain.StatusPending,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &user.ID, user.Email, domain.ActionRegister, "user", user.ID.String(), domain.OutcomeSuccess, "")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.audit.Record(ctx, nil, input.Email, domain.ActionLogin, "user", "", domain.OutcomeFailure, "unknown email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		s.audit.Record(ctx, &user.ID, user.Email, domain.ActionLogin, "user", user.ID.String(), domain.OutcomeFailure, "account locked")
		return nil, domain.ErrAccountLocked
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, s.recordFailedAttempt(ctx, user, "wrong password")
	}

	if user.Status != domain.StatusActive {
		s.audit.Record(ctx, &user.ID, user.Email, domain.ActionLogin, "user", user.ID.String(), domain.OutcomeFailure, "account not active")
		return nil, domain.ErrAccountNotActive
	}

	if user.MFAEnabled {
		if input.MFACode == "" {
			return nil, domain.ErrMFARequired
		}
		if !totp.Validate(input.MFACode, user.MFASecret) {
			return nil, s.recordFailedAttempt(ctx, user, "invalid MFA code")
		}
	}

	now := time.Now()
	user.LoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &user.ID, user.Email, domain.ActionLogin, "user", user.ID.String(), domain.OutcomeSuccess, "")
	return &AuthResult{User: user, AccessToken: token}, nil
}

// recordFailedAttempt bumps the lockout counter, locking the account after
// maxLoginAttempts consecutive failures.
func (s *AuthService) recordFailedAttempt(ctx context.Context, user *domain.User, reason string) error {
	user.LoginAttempts++
	if user.LoginAttempts >= maxLoginAttempts {
		until := time.Now().Add(lockoutDuration)
		user.LockedUntil = &until
		user.LoginAttempts = 0
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.audit.Record(ctx, &user.ID, user.Email, domain.ActionLogin, "user", user.ID.String(), domain.OutcomeFailure, reason)

	if reason == "invalid MFA code" {
		return domain.ErrInvalidMFACode
	}
	return domain.ErrInvalidCredentials
}

func (s *AuthService) generateAccessToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"exp":   time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return &claims, nil
	}

	return nil, errors.New("invalid token")
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// SetupMFA issues a fresh TOTP secret. MFA is not enforced until the user
// confirms a valid code via VerifyMFA.
func (s *AuthService) SetupMFA(ctx context.Context, user *domain.User) (*MFASetup, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.cfg.MFAIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return nil, err
	}

	user.MFASecret = key.Secret()
	user.MFAEnabled = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &user.ID, user.Email, domain.ActionMFASetup, "user", user.ID.String(), domain.OutcomeSuccess, "")
	return &MFASetup{Secret: key.Secret(), URL: key.URL()}, nil
}

// VerifyMFA confirms the enrollment code and turns MFA on for the account.
func (s *AuthService) VerifyMFA(ctx context.Context, user *domain.User, code string) error {
	if user.MFASecret == "" {
		return domain.ErrMFARequired
	}
	if !totp.Validate(code, user.MFASecret) {
		s.audit.Record(ctx, &user.ID, user.Email, domain.ActionMFAVerify, "user", user.ID.String(), domain.OutcomeFailure, "invalid code")
		return domain.ErrInvalidMFACode
	}

	user.MFAEnabled = true
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	s.audit.Record(ctx, &user.ID, user.Email, domain.ActionMFAVerify, "user", user.ID.String(), domain.OutcomeSuccess, "")
	return nil
}

// ApproveUser flips a pending account to active. Admin only.
func (s *AuthService) ApproveUser(ctx context.Context, admin *domain.User, userID uuid.UUID) (*domain.User, error) {
	if !admin.IsAdmin() {
		s.audit.Record(ctx, &admin.ID, admin.Email, domain.ActionApproveUser, "user", userID.String(), domain.OutcomeFailure, "not an admin")
		return nil, domain.ErrAccessDenied
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Status = domain.StatusActive
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, &admin.ID, admin.Email, domain.ActionApproveUser, "user", user.ID.String(), domain.OutcomeSuccess,
		fmt.Sprintf("approved %s", user.Email))
	return user, nil
}
