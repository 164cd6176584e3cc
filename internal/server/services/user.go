package services

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/logging"
	"github.com/dmitrijs2005/eventhub/internal/server/auth"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventhub/internal/validation"
)

// AuthResult is returned by successful registration and login.
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// ProfileUpdate lists the self-service profile fields. Nil fields are left
// unchanged. Email and role are deliberately absent.
type ProfileUpdate struct {
	Name     *string
	USN      *string
	Phone    *string
	Semester *int
}

// UserService owns account creation, login and self-service profile changes.
type UserService struct {
	repos  repomanager.Repositories
	tokens *auth.TokenService
	hasher *auth.PasswordHasher
	logger logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(repos repomanager.Repositories, tokens *auth.TokenService, hasher *auth.PasswordHasher, logger logging.Logger) *UserService {
	return &UserService{
		repos:  repos,
		tokens: tokens,
		hasher: hasher,
		logger: logger.With("module", "users"),
	}
}

var check = validation.New()

var usnRule = fmt.Sprintf("alphanum,len=%d", models.USNLength)

func validateUSN(usn string) error {
	return check.Var(usn, usnRule, fmt.Sprintf("USN must be exactly %d letters or digits", models.USNLength))
}

// validatePhone accepts an empty phone, which clears it.
func validatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	return check.Var(phone, "number,len=10", "Phone must be a 10 digit number")
}

func validateSemester(semester int) error {
	return check.Var(semester, "min=1,max=8", "Semester must be between 1 and 8")
}

func validatePassword(password string) error {
	if len(password) < models.MinPasswordLength {
		return common.Validationf("Password must be at least %d characters", models.MinPasswordLength)
	}
	return nil
}

// Register creates a user with role "user" and returns a session for it.
func (s *UserService) Register(ctx context.Context, name, usn, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	usn = models.NormalizeUSN(usn)
	email = models.NormalizeEmail(email)

	if name == "" {
		return nil, common.Validationf("Please provide a name")
	}
	if email == "" {
		return nil, common.Validationf("Please provide an email")
	}
	if err := validateUSN(usn); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	// Fast path for the common case; the unique indexes decide races.
	_, err := s.repos.Users().FindByEmailOrUSN(ctx, email, usn)
	if err == nil {
		return nil, common.ErrDuplicateIdentity
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("password hash: %w", err)
	}

	user, err := s.repos.Users().Create(ctx, &models.User{
		Name:         name,
		USN:          usn,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return s.session(user)
}

// Login checks credentials. An unknown email and a wrong password produce
// the same error, and both pay for one hash verification.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repos.Users().GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(password, s.dummy())
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("password verify: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, password)
	}

	return s.session(user)
}

func (s *UserService) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.repos.Users().UpdatePassword(ctx, userID, hash)
	}
	if err != nil {
		s.logger.Warn(ctx, "password rehash failed", "user_id", userID, "error", err)
	}
}

func (s *UserService) dummy() string {
	s.dummyOnce.Do(func() {
		pw := common.GenerateRandByteArray(16)
		defer common.WipeByteArray(pw)
		s.dummyHash, _ = s.hasher.Hash(hex.EncodeToString(pw))
	})
	return s.dummyHash
}

func (s *UserService) session(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("token issue: %w", err)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// Me returns the stored user.
func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.repos.Users().GetByID(ctx, userID)
}

// UpdateProfile applies upd to the user's own profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.repos.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, common.Validationf("Name cannot be empty")
		}
		user.Name = name
	}

	if upd.USN != nil {
		usn := models.NormalizeUSN(*upd.USN)
		if err := validateUSN(usn); err != nil {
			return nil, err
		}
		if usn != user.USN {
			_, err := s.repos.Users().FindByEmailOrUSN(ctx, "", usn)
			if err == nil {
				return nil, fmt.Errorf("%w: this USN is already registered", common.ErrDuplicateIdentity)
			}
			if !errors.Is(err, common.ErrorNotFound) {
				return nil, err
			}
			user.USN = usn
		}
	}

	if upd.Phone != nil {
		phone := strings.TrimSpace(*upd.Phone)
		if err := validatePhone(phone); err != nil {
			return nil, err
		}
		user.Phone = phone
	}
	if upd.Semester != nil {
		if err := validateSemester(*upd.Semester); err != nil {
			return nil, err
		}
		user.Semester = *upd.Semester
	}

	return s.repos.Users().UpdateProfile(ctx, user)
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := validatePassword(next); err != nil {
		return err
	}

	user, err := s.repos.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("password verify: %w", err)
	}
	if !ok {
		// 401 stays reserved for session failures.
		return common.Validationf("Current password is incorrect")
	}

	return s.setPassword(ctx, user.ID, next)
}

// setPassword re-hashes and stores password. The repository drops any
// pending reset token in the same write.
func (s *UserService) setPassword(ctx context.Context, userID, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("password hash: %w", err)
	}
	return s.repos.Users().UpdatePassword(ctx, userID, hash)
}

// SetRole changes a user's role. It is reachable only from the maintenance
// CLI. changed is false when the user already had role.
func (s *UserService) SetRole(ctx context.Context, email string, role models.Role) (user *models.User, changed bool, err error) {
	if !role.Valid() {
		return nil, false, common.Validationf("unknown role %q", role)
	}

	user, err = s.repos.Users().GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, false, err
	}
	if user.Role == role {
		return user, false, nil
	}

	user, err = s.repos.Users().SetRole(ctx, user.Email, role)
	if err != nil {
		return nil, false, err
	}
	s.logger.Info(ctx, "role changed", "user_id", user.ID, "role", string(role))
	return user, true, nil
}
