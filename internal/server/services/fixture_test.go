package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/logging"
	"github.com/dmitrijs2005/eventhub/internal/server/auth"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/dmitrijs2005/eventhub/internal/server/notify"
	"github.com/dmitrijs2005/eventhub/internal/server/objectstore"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/repomanager"
	"github.com/matthewhartstonge/argon2"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *recordingNotifier) last() notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent[len(n.sent)-1]
}

type fixture struct {
	repos    *repomanager.InMemoryRepositoryManager
	tokens   *auth.TokenService
	hasher   *auth.PasswordHasher
	notifier *recordingNotifier
	store    *objectstore.MemoryStore

	users  *UserService
	reset  *PasswordResetService
	guard  *Guard
	events *EventService
	regs   *RegistrationService

	mu  sync.Mutex
	now time.Time
}

func testHasher() *auth.PasswordHasher {
	cfg := argon2.DefaultConfig()
	cfg.MemoryCost = 1024
	cfg.TimeCost = 1
	cfg.Parallelism = 1
	return auth.NewPasswordHasherWithConfig(cfg)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := logging.New(logging.FormatText, io.Discard)
	f := &fixture{
		repos:    repomanager.NewInMemoryRepositoryManager(),
		tokens:   auth.NewTokenService([]byte("test-secret"), time.Hour),
		hasher:   testHasher(),
		notifier: &recordingNotifier{},
		store:    objectstore.NewMemoryStore(),
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	f.users = NewUserService(f.repos, f.tokens, f.hasher, logger)
	f.reset = NewPasswordResetService(f.repos, f.notifier, f.tokens, f.hasher,
		ResetConfig{ClientURL: "http://localhost:5173", TTL: 10 * time.Minute}, logger)
	f.reset.now = f.clock
	f.guard = NewGuard(f.tokens, f.repos)
	f.events = NewEventService(f.repos, f.guard, f.store, logger)
	f.events.now = f.clock
	f.regs = NewRegistrationService(f.repos, f.store, logger)
	f.regs.now = f.clock

	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// signup registers a user and returns its identity.
func (f *fixture) signup(t *testing.T, email, usn string) (*Identity, *AuthResult) {
	t.Helper()
	ctx := context.Background()

	res, err := f.users.Register(ctx, "Student", usn, email, "secret1")
	require.NoError(t, err)

	id, err := f.guard.Authenticate(ctx, "Bearer "+res.Token)
	require.NoError(t, err)
	return id, res
}

// admin registers a user and promotes it.
func (f *fixture) admin(t *testing.T, email, usn string) *Identity {
	t.Helper()
	ctx := context.Background()

	_, res := f.signup(t, email, usn)
	_, _, err := f.users.SetRole(ctx, email, models.RoleAdmin)
	require.NoError(t, err)

	id, err := f.guard.Authenticate(ctx, "Bearer "+res.Token)
	require.NoError(t, err)
	return id
}

func ptr[T any](v T) *T { return &v }

// eventFields returns a valid event dated after the fixture clock.
func eventFields(title string) EventFields {
	return EventFields{
		Title:                ptr(title),
		Description:          ptr("desc"),
		Date:                 ptr(time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)),
		Time:                 ptr("10:00 AM"),
		Venue:                ptr("Main Hall"),
		RegistrationDeadline: ptr(time.Date(2026, 4, 1, 23, 59, 0, 0, time.UTC)),
	}
}

var errBoom = errors.New("boom")
