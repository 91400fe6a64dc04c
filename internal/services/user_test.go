package services

import (
	"fmt"
	"testing"

	"stuffbox-backend/internal/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signup(t *testing.T, f *fixture, nick string) *AuthResponse {
	t.Helper()
	resp, err := f.users.Signup(f.ctx, SignupRequest{
		FirstName: "First",
		LastName:  "Last",
		NickName:  nick,
		Email:     nick + "@Example.com ",
		Password:  "password1",
	})
	require.NoError(t, err)
	return resp
}

func TestSignupLoginLogout(t *testing.T) {
	f := newFixture(t)
	resp := signup(t, f, "alice")
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.Token)

	userID, err := f.users.Authenticate(f.ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, userID)

	login, err := f.users.Login(f.ctx, LoginRequest{Email: "ALICE@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.NotEqual(t, resp.Token, login.Token)

	require.NoError(t, f.users.Logout(f.ctx, userID, resp.Token))
	_, err = f.users.Authenticate(f.ctx, resp.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = f.users.Authenticate(f.ctx, login.Token)
	assert.NoError(t, err)

	require.NoError(t, f.users.LogoutAll(f.ctx, userID))
	_, err = f.users.Authenticate(f.ctx, login.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	signup(t, f, "alice")

	_, err := f.users.Signup(f.ctx, SignupRequest{FirstName: "A", LastName: "B", Email: "alice@example.com", Password: "password1"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "unique", verr.Fields["email"])

	_, err = f.users.Signup(f.ctx, SignupRequest{FirstName: "A", Email: "not-an-email", Password: "short"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["last_name"])
	assert.Equal(t, "email", verr.Fields["email"])
	assert.Equal(t, "min=7", verr.Fields["password"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	signup(t, f, "alice")

	_, err := f.users.Login(f.ctx, LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.users.Login(f.ctx, LoginRequest{Email: "nobody@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsForeignToken(t *testing.T) {
	f := newFixture(t)
	resp := signup(t, f, "alice")

	other := NewUserService(f.stores, f.projector, nil, "another-secret")
	_, err := other.Authenticate(f.ctx, resp.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUpdateMe(t *testing.T) {
	f := newFixture(t)
	resp := signup(t, f, "alice")

	name := "  Alicia "
	view, err := f.users.UpdateMe(f.ctx, resp.User.ID, UpdateUserRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", view.FirstName)
	assert.Equal(t, "Last", view.LastName)

	bad := "nope"
	_, err = f.users.UpdateMe(f.ctx, resp.User.ID, UpdateUserRequest{Email: &bad})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateAvatarRequiresOwnUpload(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")

	_, err := f.users.UpdateAvatar(f.ctx, alice.ID, uploadDir(bob)+"1-face.png")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	first := uploadDir(alice) + "1-face.png"
	view, err := f.users.UpdateAvatar(f.ctx, alice.ID, first)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+first, view.AvatarURL)
	assert.Empty(t, f.files.Deleted())

	second := uploadDir(alice) + "2-face.png"
	_, err = f.users.UpdateAvatar(f.ctx, alice.ID, second)
	require.NoError(t, err)
	assert.Equal(t, []string{first}, f.files.Deleted())
}

func TestListUsersExcludesViewer(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	f.user("bob")
	f.user("carol")

	views, total, err := f.users.ListUsers(f.ctx, alice.ID, UserQuery{}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, v := range views {
		assert.NotEqual(t, alice.ID, v.ID)
	}

	views, total, err = f.users.ListUsers(f.ctx, alice.ID, UserQuery{Me: true}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, alice.ID, views[0].ID)
}

func TestFollowersAndFollowing(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	bob := f.user("bob")
	_, err := f.relations.Follow(f.ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	followers, err := f.users.Followers(f.ctx, bob.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, alice.ID, followers[0].ID)

	following, err := f.users.Following(f.ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, bob.ID, following[0].ID)
	assert.True(t, *following[0].IsFollowing)
}

func TestLikedStuffPagesByPageIndex(t *testing.T) {
	f := newFixture(t)
	owner := f.user("owner")
	viewer := f.user("viewer")

	var ids []string
	for i := range 25 {
		item := f.item(owner.ID, fmt.Sprintf("item-%02d", i))
		_, err := f.relations.LikeStuff(f.ctx, viewer.ID, item.ID)
		require.NoError(t, err)
		ids = append([]string{item.ID}, ids...)
	}

	views, total, err := f.users.LikedStuff(f.ctx, viewer.ID, pagination.Params{Limit: 10, Skip: 15})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	require.Len(t, views, 10)
	for i, v := range views {
		assert.Equal(t, ids[10+i], v.ID)
		assert.True(t, v.IsLiked)
	}

	views, total, err = f.users.LikedStuff(f.ctx, viewer.ID, pagination.Params{Limit: 10, Skip: 40})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Empty(t, views)
}

func TestUpdatePushTokenClearsOnEmpty(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")

	token := "device-token"
	require.NoError(t, f.users.UpdatePushToken(f.ctx, alice.ID, &token))
	require.NotNil(t, f.reloadUser(alice.ID).PushToken)

	empty := ""
	require.NoError(t, f.users.UpdatePushToken(f.ctx, alice.ID, &empty))
	assert.Nil(t, f.reloadUser(alice.ID).PushToken)
}
