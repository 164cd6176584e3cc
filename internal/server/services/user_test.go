package services

import (
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/eventhub/internal/common"
	"github.com/dmitrijs2005/eventhub/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_RegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.users.Register(ctx, "  Asha ", "1pe20cs001", " Asha@PES.edu ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", reg.User.Name)
	assert.Equal(t, "1PE20CS001", reg.User.USN)
	assert.Equal(t, "asha@pes.edu", reg.User.Email)
	assert.Equal(t, models.RoleUser, reg.User.Role)

	login, err := f.users.Login(ctx, "ASHA@pes.edu", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.User, login.User)

	uid, err := f.tokens.Verify(login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, uid)

	stored, err := f.repos.Users().GetByID(ctx, uid)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))
}

func TestUserService_RegisterDuplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, "A", "1PE20CS001", "a@pes.edu", "secret1")
	require.NoError(t, err)

	_, err = f.users.Register(ctx, "B", "1PE20CS002", "A@PES.EDU", "secret1")
	assert.ErrorIs(t, err, common.ErrDuplicateIdentity)

	_, err = f.users.Register(ctx, "B", "1pe20cs001", "b@pes.edu", "secret1")
	assert.ErrorIs(t, err, common.ErrDuplicateIdentity)
}

func TestUserService_RegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name                       string
		user, usn, email, password string
	}{
		{"short usn", "A", "1PE20", "a@pes.edu", "secret1"},
		{"long usn", "A", "1PE20CS0011", "a@pes.edu", "secret1"},
		{"usn of two-byte letters", "A", "ÉÉÉÉÉ", "a@pes.edu", "secret1"},
		{"usn with accented letter", "A", "1PE20CS00É", "a@pes.edu", "secret1"},
		{"usn with punctuation", "A", "1PE20-S001", "a@pes.edu", "secret1"},
		{"short password", "A", "1PE20CS001", "a@pes.edu", "12345"},
		{"missing name", " ", "1PE20CS001", "a@pes.edu", "secret1"},
		{"missing email", "A", "1PE20CS001", "", "secret1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Register(ctx, tt.user, tt.usn, tt.email, tt.password)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestUserService_LoginFailuresLookAlike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@pes.edu", "1PE20CS001")

	_, wrongPassword := f.users.Login(ctx, "a@pes.edu", "nope123")
	_, unknownEmail := f.users.Login(ctx, "ghost@pes.edu", "secret1")

	require.ErrorIs(t, wrongPassword, common.ErrInvalidCredentials)
	require.ErrorIs(t, unknownEmail, common.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestUserService_LoginUpgradesLegacyHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	u, err := f.repos.Users().Create(ctx, &models.User{
		Name: "Old", USN: "1PE19CS001", Email: "old@pes.edu", PasswordHash: string(legacy), Role: models.RoleUser,
	})
	require.NoError(t, err)

	_, err = f.users.Login(ctx, "old@pes.edu", "secret1")
	require.NoError(t, err)

	stored, err := f.repos.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

	_, err = f.users.Login(ctx, "old@pes.edu", "secret1")
	require.NoError(t, err)
}

func TestUserService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, _ := f.signup(t, "a@pes.edu", "1PE20CS001")
	f.signup(t, "b@pes.edu", "1PE20CS002")

	got, err := f.users.UpdateProfile(ctx, me.ID, ProfileUpdate{
		Name:     ptr(" Asha K "),
		USN:      ptr("1pe20cs009"),
		Phone:    ptr(" 9876543210 "),
		Semester: ptr(5),
	})
	require.NoError(t, err)
	assert.Equal(t, "Asha K", got.Name)
	assert.Equal(t, "1PE20CS009", got.USN)
	assert.Equal(t, "9876543210", got.Phone)
	assert.Equal(t, 5, got.Semester)
	assert.Equal(t, "a@pes.edu", got.Email)
	assert.Equal(t, models.RoleUser, got.Role)

	_, err = f.users.UpdateProfile(ctx, me.ID, ProfileUpdate{USN: ptr("1PE20CS002")})
	assert.ErrorIs(t, err, common.ErrDuplicateIdentity)

	_, err = f.users.UpdateProfile(ctx, me.ID, ProfileUpdate{USN: ptr("short")})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.users.UpdateProfile(ctx, me.ID, ProfileUpdate{Name: ptr("  ")})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.users.UpdateProfile(ctx, me.ID, ProfileUpdate{Phone: ptr("12345")})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.users.UpdateProfile(ctx, me.ID, ProfileUpdate{Semester: ptr(99)})
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = f.users.UpdateProfile(ctx, me.ID, ProfileUpdate{Semester: ptr(0)})
	assert.ErrorIs(t, err, common.ErrValidation)

	stored, err := f.repos.Users().GetByID(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Semester)

	// an empty phone clears it
	got, err = f.users.UpdateProfile(ctx, me.ID, ProfileUpdate{Phone: ptr(" ")})
	require.NoError(t, err)
	assert.Empty(t, got.Phone)

	// keeping the current USN is not a conflict
	_, err = f.users.UpdateProfile(ctx, me.ID, ProfileUpdate{USN: ptr("1PE20CS009")})
	assert.NoError(t, err)
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me, _ := f.signup(t, "a@pes.edu", "1PE20CS001")

	err := f.users.ChangePassword(ctx, me.ID, "wrong1", "newsecret")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.NotErrorIs(t, err, common.ErrInvalidCredentials)

	err = f.users.ChangePassword(ctx, me.ID, "secret1", "123")
	assert.ErrorIs(t, err, common.ErrValidation)

	// a pending reset is dropped by the password change
	require.NoError(t, f.reset.RequestReset(ctx, "a@pes.edu"))
	token := resetTokenFrom(t, f.notifier.last().Body)

	require.NoError(t, f.users.ChangePassword(ctx, me.ID, "secret1", "newsecret"))

	_, err = f.users.Login(ctx, "a@pes.edu", "secret1")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = f.users.Login(ctx, "a@pes.edu", "newsecret")
	assert.NoError(t, err)

	_, err = f.reset.ConsumeReset(ctx, token, "another1")
	assert.ErrorIs(t, err, common.ErrInvalidOrExpired)
}

func TestUserService_SetRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "a@pes.edu", "1PE20CS001")

	u, changed, err := f.users.SetRole(ctx, "A@pes.edu", models.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.RoleAdmin, u.Role)

	_, changed, err = f.users.SetRole(ctx, "a@pes.edu", models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, changed)

	_, _, err = f.users.SetRole(ctx, "ghost@pes.edu", models.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, _, err = f.users.SetRole(ctx, "a@pes.edu", models.Role("root"))
	assert.ErrorIs(t, err, common.ErrValidation)
}
