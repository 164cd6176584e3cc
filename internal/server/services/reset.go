package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/logging"
	"github.com/dmitrijs2005/eventhub/internal/server/auth"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/dmitrijs2005/eventhub/internal/server/notify"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/repomanager"
)

const resetSubject = "Password reset token"

// ResetConfig configures the password reset flow.
type ResetConfig struct {
	// ClientURL is the frontend base the reset link points at.
	ClientURL string
	// TTL is how long an issued reset token stays valid.
	TTL time.Duration
	// RevealUnknownEmail makes RequestReset fail with ErrorNotFound for
	// emails with no account. Off by default so existence does not leak.
	RevealUnknownEmail bool
}

// PasswordResetService issues one-time reset tokens and consumes them.
// Only the SHA-256 digest of a token is stored.
type PasswordResetService struct {
	repos    repomanager.Repositories
	notifier notify.Notifier
	tokens   *auth.TokenService
	hasher   *auth.PasswordHasher
	cfg      ResetConfig
	logger   logging.Logger
	now      func() time.Time
}

func NewPasswordResetService(repos repomanager.Repositories, notifier notify.Notifier, tokens *auth.TokenService,
	hasher *auth.PasswordHasher, cfg ResetConfig, logger logging.Logger) *PasswordResetService {
	return &PasswordResetService{
		repos:    repos,
		notifier: notifier,
		tokens:   tokens,
		hasher:   hasher,
		cfg:      cfg,
		logger:   logger.With("module", "reset"),
		now:      time.Now,
	}
}

func (s *PasswordResetService) resetURL(token string) string {
	return strings.TrimRight(s.cfg.ClientURL, "/") + "/reset-password/" + token
}

func resetBody(url string, ttl time.Duration) string {
	return fmt.Sprintf("You are receiving this email because you (or someone else) has requested a password reset for your EventHub account.\n\n"+
		"Click the link below to reset your password:\n\n%s\n\n"+
		"This link will expire in %s.\n\n"+
		"If you did not request this, please ignore this email.", url, ttl)
}

// RequestReset stores a fresh reset digest for email and delivers the raw
// token. If delivery fails the digest is cleared again and
// common.ErrDeliveryFailed is returned.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.repos.Users().GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			if s.cfg.RevealUnknownEmail {
				return fmt.Errorf("%w: there is no user with that email", common.ErrorNotFound)
			}
			s.logger.Debug(ctx, "reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := common.MakeRandHexString(common.ResetTokenBytes)
	if err != nil {
		return fmt.Errorf("reset token: %w", err)
	}

	expiry := s.now().Add(s.cfg.TTL)
	if err := s.repos.Users().SetResetToken(ctx, user.ID, common.HashToken(token), expiry); err != nil {
		return err
	}

	msg := notify.Message{
		To:      user.Email,
		Subject: resetSubject,
		Body:    resetBody(s.resetURL(token), s.cfg.TTL),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error(ctx, "reset delivery failed", "user_id", user.ID, "error", err)
		if err := s.repos.Users().ClearResetToken(ctx, user.ID); err != nil {
			s.logger.Error(ctx, "clearing undelivered reset token failed", "user_id", user.ID, "error", err)
		}
		return common.ErrDeliveryFailed
	}

	s.logger.Info(ctx, "reset token issued", "user_id", user.ID)
	return nil
}

// ConsumeReset sets a new password for the holder of token and returns a
// fresh session token. Unknown, expired and already used tokens all yield
// common.ErrInvalidOrExpired.
func (s *PasswordResetService) ConsumeReset(ctx context.Context, token, password string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}
	if token == "" {
		return "", common.ErrInvalidOrExpired
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("password hash: %w", err)
	}

	user, err := s.repos.Users().ConsumeResetToken(ctx, common.HashToken(token), s.now(), hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidOrExpired
		}
		return "", err
	}

	s.logger.Info(ctx, "password reset", "user_id", user.ID)
	return s.tokens.Issue(user.ID)
}
