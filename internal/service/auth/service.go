// internal/service/auth/service.go
package auth

import (
	"context"
	"fmt"
	"time"

	"aquaflow-service/internal/domain/staff"
	xerrors "aquaflow-service/internal/pkg/errors"
	"aquaflow-service/internal/pkg/jwt"
	"aquaflow-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// StaffRepo is the account persistence the auth service needs.
type StaffRepo interface {
	Create(ctx context.Context, a *staff.Account) error
	FindByEmail(ctx context.Context, email string) (*staff.Account, error)
	FindByID(ctx context.Context, id int64) (*staff.Account, error)
}

// Service authenticates staff accounts and manages their sessions.
type Service struct {
	staff          StaffRepo
	jwtManager     *jwt.Manager
	sessionManager *session.Manager
	rateLimiter    *session.RateLimiter
	logger         *zap.Logger
}

func NewService(
	staffRepo StaffRepo,
	jwtManager *jwt.Manager,
	sessionManager *session.Manager,
	rateLimiter *session.RateLimiter,
	logger *zap.Logger,
) *Service {
	return &Service{
		staff:          staffRepo,
		jwtManager:     jwtManager,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		logger:         logger,
	}
}

// Login verifies credentials and opens a session. Attempts are rate limited
// per IP and email pair.
func (s *Service) Login(ctx context.Context, req *staff.LoginRequest, ip, userAgent string) (*staff.LoginResponse, error) {
	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, ip, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}
	if !allowed {
		return nil, xerrors.ErrRateLimited
	}

	account, err := s.staff.FindByEmail(ctx, req.Email)
	if err != nil {
		// Same response for unknown email and wrong password.
		s.logger.Warn("login failed", zap.String("email", req.Email), zap.Int64("attempts_left", remaining))
		return nil, xerrors.ErrUnauthorized
	}
	if !account.IsActive {
		return nil, xerrors.ErrForbidden
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login failed", zap.String("email", req.Email), zap.Int64("attempts_left", remaining))
		return nil, xerrors.ErrUnauthorized
	}

	token, jti, err := s.jwtManager.Generator.GenerateAccessToken(account.ID, account.Roles, req.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	refresh, refreshJTI, err := s.jwtManager.Generator.GenerateRefreshToken(account.ID, req.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	ttl := s.jwtManager.Generator.Ttl
	if err := s.openSession(ctx, account, jti, req.Device, ip, userAgent, ttl); err != nil {
		return nil, err
	}
	// The refresh token holds its own long-lived session so it can be
	// revoked independently of the access token.
	if err := s.openSession(ctx, account, refreshJTI, req.Device, ip, userAgent, jwt.RefreshTTL); err != nil {
		return nil, err
	}

	if err := s.rateLimiter.ResetLoginAttempts(ctx, ip, req.Email); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	s.logger.Info("staff logged in", zap.Int64("staff_id", account.ID), zap.String("email", account.Email))
	return &staff.LoginResponse{
		AccessToken:  token,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(ttl.Seconds()),
		Account:      account,
	}, nil
}

func (s *Service) openSession(ctx context.Context, account *staff.Account, jti, device, ip, userAgent string, ttl time.Duration) error {
	now := time.Now()
	if err := s.sessionManager.CreateSession(ctx, &session.SessionData{
		JTI:            jti,
		StaffID:        account.ID,
		Email:          account.Email,
		Roles:          account.Roles,
		Device:         device,
		IPAddress:      ip,
		UserAgent:      userAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(ttl),
	}); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// refresh token itself is left untouched and keeps its original expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken, ip, userAgent string) (*staff.LoginResponse, error) {
	claims, err := s.jwtManager.Verifier.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, xerrors.ErrUnauthorized
	}

	blacklisted, err := s.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		return nil, xerrors.ErrUnauthorized
	}
	if _, err := s.sessionManager.GetSession(ctx, claims.StaffID, claims.ID); err != nil {
		return nil, xerrors.ErrSessionExpired
	}

	account, err := s.staff.FindByID(ctx, claims.StaffID)
	if err != nil {
		return nil, xerrors.ErrUnauthorized
	}
	if !account.IsActive {
		return nil, xerrors.ErrForbidden
	}

	token, jti, err := s.jwtManager.Generator.GenerateAccessToken(account.ID, account.Roles, claims.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	ttl := s.jwtManager.Generator.Ttl
	if err := s.openSession(ctx, account, jti, claims.Device, ip, userAgent, ttl); err != nil {
		return nil, err
	}

	s.logger.Info("access token refreshed", zap.Int64("staff_id", account.ID))
	return &staff.LoginResponse{
		AccessToken:  token,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(ttl.Seconds()),
		Account:      account,
	}, nil
}

// ValidateToken verifies the token signature, the blacklist and the session.
func (s *Service) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, xerrors.ErrUnauthorized
	}

	blacklisted, err := s.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		return nil, xerrors.ErrUnauthorized
	}

	if _, err := s.sessionManager.GetSession(ctx, claims.StaffID, claims.ID); err != nil {
		return nil, xerrors.ErrSessionExpired
	}

	return claims, nil
}

// Logout blacklists the token and removes its session.
func (s *Service) Logout(ctx context.Context, claims *jwt.Claims) error {
	until := time.Now().Add(s.jwtManager.Generator.Ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}

	if err := s.sessionManager.BlacklistToken(ctx, claims.ID, until); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	if err := s.sessionManager.DeleteSession(ctx, claims.StaffID, claims.ID); err != nil {
		s.logger.Warn("failed to delete session", zap.Error(err))
	}

	s.logger.Info("staff logged out", zap.Int64("staff_id", claims.StaffID))
	return nil
}

// GetAccount returns the staff account for the authenticated claims.
func (s *Service) GetAccount(ctx context.Context, staffID int64) (*staff.Account, error) {
	return s.staff.FindByID(ctx, staffID)
}

// CreateAccount registers a staff account. Admin only; enforced at the
// route level.
func (s *Service) CreateAccount(ctx context.Context, req *staff.CreateAccountRequest) (*staff.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &staff.Account{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Phone:        req.Phone,
		Roles:        req.Roles,
		IsActive:     true,
	}
	if err := s.staff.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("staff account created", zap.Int64("staff_id", account.ID), zap.String("email", account.Email))
	return account, nil
}

// EnsureAdminExists seeds the bootstrap admin account on startup. Safe to
// call on every boot: an existing account is left untouched.
func (s *Service) EnsureAdminExists(ctx context.Context, email, password, fullName string) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.staff.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !xerrors.Is(err, xerrors.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	account := &staff.Account{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Roles:        []string{staff.RoleAdmin},
		IsActive:     true,
	}
	if err := s.staff.Create(ctx, account); err != nil {
		if xerrors.Is(err, xerrors.ErrDuplicateEntry) {
			return nil
		}
		return err
	}

	s.logger.Info("bootstrap admin created", zap.String("email", email))
	return nil
}
