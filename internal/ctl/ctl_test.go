package ctl

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/logging"
	"github.com/dmitrijs2005/eventhub/internal/server/auth"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/dmitrijs2005/eventhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/eventhub/internal/server/services"
	"github.com/matthewhartstonge/argon2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsers(t *testing.T) (*services.UserService, *repomanager.InMemoryRepositoryManager) {
	t.Helper()

	cfg := argon2.DefaultConfig()
	cfg.MemoryCost = 1024
	cfg.TimeCost = 1
	cfg.Parallelism = 1

	repos := repomanager.NewInMemoryRepositoryManager()
	users := services.NewUserService(repos, auth.NewTokenService([]byte("k"), time.Hour),
		auth.NewPasswordHasherWithConfig(cfg), logging.New(logging.FormatText, io.Discard))

	_, err := users.Register(context.Background(), "Asha", "1RV22CS001", "asha@uni.edu", "secret1")
	require.NoError(t, err)
	return users, repos
}

func TestRun_PromoteAndDemote(t *testing.T) {
	ctx := context.Background()
	users, repos := newUsers(t)

	var out bytes.Buffer
	require.NoError(t, Run(ctx, users, []string{"-k", "memory", "promote", "ASHA@uni.edu"}, &out))
	assert.Equal(t, "asha@uni.edu is now admin\n", out.String())

	u, err := repos.Users().GetByEmail(ctx, "asha@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)

	out.Reset()
	require.NoError(t, Run(ctx, users, []string{"promote", "asha@uni.edu"}, &out))
	assert.Equal(t, "asha@uni.edu is already admin\n", out.String())

	out.Reset()
	require.NoError(t, Run(ctx, users, []string{"demote", "asha@uni.edu"}, &out))
	assert.Equal(t, "asha@uni.edu is now user\n", out.String())
}

func TestRun_Errors(t *testing.T) {
	ctx := context.Background()
	users, _ := newUsers(t)
	var out bytes.Buffer

	assert.ErrorIs(t, Run(ctx, users, nil, &out), ErrUsage)
	assert.ErrorIs(t, Run(ctx, users, []string{"promote"}, &out), ErrUsage)
	assert.ErrorIs(t, Run(ctx, users, []string{"promote", "-d", "dsn"}, &out), ErrUsage)
	assert.ErrorIs(t, Run(ctx, users, []string{"delete", "asha@uni.edu"}, &out), ErrUsage)
	assert.ErrorIs(t, Run(ctx, users, []string{"promote", "ghost@uni.edu"}, &out), common.ErrorNotFound)
	assert.Empty(t, out.String())
}
