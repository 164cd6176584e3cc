package services

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var resetLinkRe = regexp.MustCompile(`http://localhost:5173/reset-password/([0-9a-f]+)`)

func resetTokenFrom(t *testing.T, body string) string {
	t.Helper()
	m := resetLinkRe.FindStringSubmatch(body)
	require.Len(t, m, 2, "no reset link in %q", body)
	return m[1]
}

func TestPasswordReset_RequestAndConsume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, _ := f.signup(t, "a@pes.edu", "1PE20CS001")

	require.NoError(t, f.reset.RequestReset(ctx, " A@PES.edu"))

	msg := f.notifier.last()
	assert.Equal(t, "a@pes.edu", msg.To)
	assert.Equal(t, "Password reset token", msg.Subject)
	token := resetTokenFrom(t, msg.Body)
	assert.Len(t, token, 2*common.ResetTokenBytes)

	stored, err := f.repos.Users().GetByID(ctx, me.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetTokenHash)
	assert.Equal(t, common.HashToken(token), *stored.ResetTokenHash)
	assert.Equal(t, f.clock().Add(10*time.Minute), *stored.ResetTokenExpiry)

	session, err := f.reset.ConsumeReset(ctx, token, "newsecret")
	require.NoError(t, err)
	uid, err := f.tokens.Verify(session)
	require.NoError(t, err)
	assert.Equal(t, me.ID, uid)

	_, err = f.users.Login(ctx, "a@pes.edu", "newsecret")
	assert.NoError(t, err)

	stored, err = f.repos.Users().GetByID(ctx, me.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResetTokenHash)
	assert.Nil(t, stored.ResetTokenExpiry)
}

func TestPasswordReset_ReplayFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@pes.edu", "1PE20CS001")

	require.NoError(t, f.reset.RequestReset(ctx, "a@pes.edu"))
	token := resetTokenFrom(t, f.notifier.last().Body)

	_, err := f.reset.ConsumeReset(ctx, token, "newsecret")
	require.NoError(t, err)

	_, err = f.reset.ConsumeReset(ctx, token, "another1")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpired)

	_, err = f.users.Login(ctx, "a@pes.edu", "newsecret")
	assert.NoError(t, err)
}

func TestPasswordReset_ExpiredTokenRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@pes.edu", "1PE20CS001")

	require.NoError(t, f.reset.RequestReset(ctx, "a@pes.edu"))
	token := resetTokenFrom(t, f.notifier.last().Body)

	f.advance(10*time.Minute + time.Second)
	_, err := f.reset.ConsumeReset(ctx, token, "newsecret")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpired)

	_, err = f.users.Login(ctx, "a@pes.edu", "secret1")
	assert.NoError(t, err)
}

func TestPasswordReset_LatestTokenWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@pes.edu", "1PE20CS001")

	require.NoError(t, f.reset.RequestReset(ctx, "a@pes.edu"))
	first := resetTokenFrom(t, f.notifier.last().Body)
	require.NoError(t, f.reset.RequestReset(ctx, "a@pes.edu"))
	second := resetTokenFrom(t, f.notifier.last().Body)

	_, err := f.reset.ConsumeReset(ctx, first, "newsecret")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpired)
	_, err = f.reset.ConsumeReset(ctx, second, "newsecret")
	assert.NoError(t, err)
}

func TestPasswordReset_BadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.reset.ConsumeReset(ctx, "deadbeef", "newsecret")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpired)

	_, err = f.reset.ConsumeReset(ctx, "", "newsecret")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpired)

	_, err = f.reset.ConsumeReset(ctx, "deadbeef", "123")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestPasswordReset_UnknownEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.reset.RequestReset(ctx, "ghost@pes.edu"))
	assert.Empty(t, f.notifier.sent)

	revealing := NewPasswordResetService(f.repos, f.notifier, f.tokens, f.hasher,
		ResetConfig{ClientURL: "http://localhost:5173", TTL: time.Minute, RevealUnknownEmail: true},
		logging.New(logging.FormatText, io.Discard))
	err := revealing.RequestReset(ctx, "ghost@pes.edu")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Empty(t, f.notifier.sent)
}

func TestPasswordReset_DeliveryFailureClearsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, _ := f.signup(t, "a@pes.edu", "1PE20CS001")

	f.notifier.err = errBoom
	err := f.reset.RequestReset(ctx, "a@pes.edu")
	assert.ErrorIs(t, err, common.ErrDeliveryFailed)

	stored, err := f.repos.Users().GetByID(ctx, me.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ResetTokenHash)
	assert.Nil(t, stored.ResetTokenExpiry)
}
