package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_shop/internal/config"
	"github.com/GTDGit/gtd_shop/internal/service/servicetest"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

const testHost = "https://shop.test"

type userFixture struct {
	store  *servicetest.Store
	mail   *servicetest.Mail
	tokens *utils.TokenManager
	svc    *UserService
}

func newUserFixture() *userFixture {
	store := servicetest.NewStore()
	mail := &servicetest.Mail{}
	tokens := utils.NewTokenManager("secret", time.Hour)
	cfg := &config.Config{Host: testHost, JWTSecret: "secret", PasswordResetTimeout: 72 * time.Hour}
	return &userFixture{
		store:  store,
		mail:   mail,
		tokens: tokens,
		svc:    NewUserService(store.Users(), tokens, mail, cfg),
	}
}

func strPtr(s string) *string { return &s }

func resetParts(t *testing.T, link string) (string, string) {
	t.Helper()
	rest := strings.TrimPrefix(link, testHost+"/users/reset-password/")
	require.NotEqual(t, link, rest)
	parts := strings.Split(rest, "/")
	require.Len(t, parts, 3)
	return parts[0], parts[1]
}

func TestCreateAccount(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	profile, err := f.svc.CreateAccount(ctx, CreateAccountRequest{
		Email:     "Ann@Example.com",
		Password:  "secret1",
		FirstName: "Ann",
		City:      "Utrecht",
	})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", profile.User.Email)
	assert.Equal(t, "Utrecht", profile.City)

	_, err = f.svc.CreateAccount(ctx, CreateAccountRequest{Email: "ann@example.com", Password: "secret2"})
	assert.ErrorIs(t, err, utils.ErrEmailTaken)

	_, err = f.svc.CreateAccount(ctx, CreateAccountRequest{Email: "bob@example.com", Password: "12345"})
	assert.ErrorIs(t, err, utils.ErrPasswordTooShort)
	assert.ErrorIs(t, err, utils.ErrValidation)
}

func TestCreateAccountCountsPasswordCharacters(t *testing.T) {
	f := newUserFixture()
	ctx := context.Background()

	// six bytes, three characters
	_, err := f.svc.CreateAccount(ctx, CreateAccountRequest{Email: "eve@example.com", Password: "ééé"})
	assert.ErrorIs(t, err, utils.ErrPasswordTooShort)

	_, err = f.svc.CreateAccount(ctx, CreateAccountRequest{Email: "eve@example.com", Password: "éééééé"})
	require.NoError(t, err)
	_, err = f.svc.IssueToken(ctx, TokenRequest{Email: "eve@example.com", Password: "éééééé"})
	assert.NoError(t, err)
}

func TestIssueToken(t *testing.T) {
	f := newUserFixture()
	user := f.store.AddUser("ann@example.com", "secret1")
	ctx := context.Background()

	token, err := f.svc.IssueToken(ctx, TokenRequest{Email: "ANN@example.com", Password: "secret1"})
	require.NoError(t, err)

	claims, err := f.tokens.ValidateJWT(token.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.False(t, claims.IsStaff)

	_, err = f.svc.IssueToken(ctx, TokenRequest{Email: "ann@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

	_, err = f.svc.IssueToken(ctx, TokenRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)

	f.store.SetUserActive(user.ID, false)
	_, err = f.svc.IssueToken(ctx, TokenRequest{Email: "ann@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, utils.ErrInvalidCredentials)
}

func TestUpdateProfile(t *testing.T) {
	f := newUserFixture()
	user := f.store.AddUser("ann@example.com", "secret1")
	ctx := context.Background()

	_, err := f.svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Email: strPtr("new@example.com")})
	assert.ErrorIs(t, err, utils.ErrEmailImmutable)

	profile, err := f.svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{
		Email: strPtr("ANN@example.com"),
		City:  strPtr("Delft"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Delft", profile.City)
	assert.Equal(t, "Ann", profile.FirstName, "untouched fields kept")

	_, err = f.svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Password: strPtr("123")})
	assert.ErrorIs(t, err, utils.ErrPasswordTooShort)

	_, err = f.svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Password: strPtr("changed1")})
	require.NoError(t, err)
	_, err = f.svc.IssueToken(ctx, TokenRequest{Email: "ann@example.com", Password: "changed1"})
	assert.NoError(t, err)

	_, err = f.svc.GetProfile(ctx, 999)
	assert.ErrorIs(t, err, utils.ErrUserNotFound)
}

func TestRequestPasswordReset(t *testing.T) {
	f := newUserFixture()
	user := f.store.AddUser("ann@example.com", "secret1")
	ctx := context.Background()

	found, err := f.svc.RequestPasswordReset(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, f.mail.Sent())

	found, err = f.svc.RequestPasswordReset(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.True(t, found)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ann@example.com", sent[0].To)
	assert.Equal(t, "Ann Lee", sent[0].ToName)
	assert.Contains(t, sent[0].HTML, testHost+"/users/reset-password/"+utils.EncodeUserID(user.ID)+"/")

	f.mail.Full = true
	found, err = f.svc.RequestPasswordReset(ctx, "ann@example.com")
	require.NoError(t, err, "a dropped email is not surfaced")
	assert.True(t, found)
}

func TestResetPassword(t *testing.T) {
	f := newUserFixture()
	user := f.store.AddUser("ann@example.com", "secret1")
	ctx := context.Background()

	stored, err := f.store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	encodedID, token := resetParts(t, f.svc.ResetLink(stored))

	require.NoError(t, f.svc.ResetPassword(ctx, encodedID, token, "newpass1"))
	_, err = f.svc.IssueToken(ctx, TokenRequest{Email: "ann@example.com", Password: "newpass1"})
	require.NoError(t, err)

	err = f.svc.ResetPassword(ctx, encodedID, token, "another1")
	assert.ErrorIs(t, err, utils.ErrInvalidResetLink, "password change invalidates the token")
}

func TestResetPasswordRejectsBadLinks(t *testing.T) {
	f := newUserFixture()
	user := f.store.AddUser("ann@example.com", "secret1")
	ctx := context.Background()

	stored, err := f.store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	encodedID, token := resetParts(t, f.svc.ResetLink(stored))

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "!!", token, "newpass1"), utils.ErrInvalidResetLink)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, utils.EncodeUserID(999), token, "newpass1"), utils.ErrInvalidResetLink)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, encodedID, "1-abc", "newpass1"), utils.ErrInvalidResetLink)
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, encodedID, token, "123"), utils.ErrPasswordTooShort)

	f.svc.now = func() time.Time { return time.Now().Add(73 * time.Hour) }
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, encodedID, token, "newpass1"), utils.ErrInvalidResetLink, "expired")
}
