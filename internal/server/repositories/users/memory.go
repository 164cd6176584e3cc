package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/google/uuid"
)

// InMemoryRepository keeps users in process memory. Uniqueness checks and
// writes happen under one lock, giving the same guarantees as the unique
// indexes of the database-backed stores.
type InMemoryRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
	now   func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{users: make(map[string]*models.User), now: time.Now}
}

func clone(u *models.User) *models.User {
	c := *u
	if u.ResetTokenHash != nil {
		h := *u.ResetTokenHash
		c.ResetTokenHash = &h
	}
	if u.ResetTokenExpiry != nil {
		e := *u.ResetTokenExpiry
		c.ResetTokenExpiry = &e
	}
	return &c
}

// conflict reports whether another user (not skipID) already holds email or usn.
func (r *InMemoryRepository) conflict(skipID, email, usn string) bool {
	for id, u := range r.users {
		if id == skipID {
			continue
		}
		if (email != "" && u.Email == email) || (usn != "" && u.USN == usn) {
			return true
		}
	}
	return false
}

func (r *InMemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conflict("", user.Email, user.USN) {
		return nil, common.ErrDuplicateIdentity
	}

	now := r.now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = clone(user)

	return user, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *InMemoryRepository) find(match func(u *models.User) bool) *models.User {
	for _, u := range r.users {
		if match(u) {
			return u
		}
	}
	return nil
}

func (r *InMemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.find(func(u *models.User) bool { return u.Email == email })
	if u == nil {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *InMemoryRepository) FindByEmailOrUSN(ctx context.Context, email, usn string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.find(func(u *models.User) bool { return u.Email == email || u.USN == usn })
	if u == nil {
		return nil, common.ErrorNotFound
	}
	return clone(u), nil
}

func (r *InMemoryRepository) UpdateProfile(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[user.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if r.conflict(user.ID, "", user.USN) {
		return nil, common.ErrDuplicateIdentity
	}

	u.Name = user.Name
	u.USN = user.USN
	u.Phone = user.Phone
	u.Semester = user.Semester
	u.UpdatedAt = r.now()

	return clone(u), nil
}

func (r *InMemoryRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = passwordHash
	u.ResetTokenHash = nil
	u.ResetTokenExpiry = nil
	u.UpdatedAt = r.now()
	return nil
}

func (r *InMemoryRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.ResetTokenHash = &tokenHash
	u.ResetTokenExpiry = &expiry
	return nil
}

func (r *InMemoryRepository) ClearResetToken(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.ResetTokenHash = nil
	u.ResetTokenExpiry = nil
	return nil
}

func (r *InMemoryRepository) ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, passwordHash string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.find(func(u *models.User) bool {
		return u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash &&
			u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now)
	})
	if u == nil {
		return nil, common.ErrorNotFound
	}

	u.PasswordHash = passwordHash
	u.ResetTokenHash = nil
	u.ResetTokenExpiry = nil
	u.UpdatedAt = r.now()

	return clone(u), nil
}

func (r *InMemoryRepository) SetRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.find(func(u *models.User) bool { return u.Email == email })
	if u == nil {
		return nil, common.ErrorNotFound
	}
	u.Role = role
	u.UpdatedAt = r.now()
	return clone(u), nil
}
