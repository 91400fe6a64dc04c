package storetest

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"stuffbox-backend/internal/models"
	"stuffbox-backend/internal/repository"
)

// Users is the in-memory user store
type Users struct {
	s *Store
}

func userID(u *models.User) string { return u.ID }

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Followers = clone(u.Followers)
	c.Following = clone(u.Following)
	c.LikedStuff = clone(u.LikedStuff)
	c.LikedCollections = clone(u.LikedCollections)
	c.Tokens = clone(u.Tokens)
	if u.PushToken != nil {
		token := *u.PushToken
		c.PushToken = &token
	}
	return &c
}

func compareUsers(a, b *models.User, field string) (int, bool) {
	switch field {
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt), true
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt), true
	case "firstName":
		return strings.Compare(a.FirstName, b.FirstName), true
	case "lastName":
		return strings.Compare(a.LastName, b.LastName), true
	case "nickName":
		return strings.Compare(a.NickName, b.NickName), true
	}
	return 0, false
}

func (r *Users) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Create"); err != nil {
		return err
	}
	for _, u := range r.s.users {
		if u.ID == user.ID || u.Email == user.Email {
			return fmt.Errorf("create user: %w", repository.ErrDuplicate)
		}
	}
	r.s.users = append(r.s.users, cloneUser(user))
	return nil
}

func (r *Users) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.GetByID"); err != nil {
		return nil, err
	}
	if _, u := find(r.s.users, userID, id); u != nil {
		return cloneUser(u), nil
	}
	return nil, notFound("get user")
}

func (r *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, notFound("get user by email")
}

func (r *Users) GetByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if _, u := find(r.s.users, userID, id); u != nil {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *Users) List(_ context.Context, filter repository.UserFilter, limit, skip int) ([]*models.User, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.List"); err != nil {
		return nil, 0, err
	}
	var matched []*models.User
	for _, u := range r.s.users {
		if filter.Match(u) {
			matched = append(matched, cloneUser(u))
		}
	}
	orderItems(matched, filter.Sort, compareUsers)
	return window(matched, limit, skip), len(matched), nil
}

func (r *Users) update(op, id string, fn func(u *models.User) bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(op); err != nil {
		return false, err
	}
	_, u := find(r.s.users, userID, id)
	if u == nil {
		return false, nil
	}
	return fn(u), nil
}

func (r *Users) UpdateProfile(_ context.Context, user *models.User) error {
	found, err := r.update("users.UpdateProfile", user.ID, func(u *models.User) bool {
		u.FirstName, u.LastName, u.NickName = user.FirstName, user.LastName, user.NickName
		u.Email, u.PasswordHash = user.Email, user.PasswordHash
		return true
	})
	if err == nil && !found {
		err = notFound("update user")
	}
	return err
}

func (r *Users) UpdateAvatar(_ context.Context, id, avatar string) error {
	found, err := r.update("users.UpdateAvatar", id, func(u *models.User) bool {
		u.Avatar = avatar
		return true
	})
	if err == nil && !found {
		err = notFound("update avatar")
	}
	return err
}

func (r *Users) UpdatePushToken(_ context.Context, id string, pushToken *string) error {
	_, err := r.update("users.UpdatePushToken", id, func(u *models.User) bool {
		u.PushToken = pushToken
		return true
	})
	return err
}

func (r *Users) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Delete"); err != nil {
		return err
	}
	i, _ := find(r.s.users, userID, id)
	if i < 0 {
		return notFound("delete user")
	}
	r.s.users = slices.Delete(r.s.users, i, i+1)
	return nil
}

func (r *Users) AddToken(_ context.Context, id, token string) error {
	_, err := r.update("users.AddToken", id, func(u *models.User) bool {
		var changed bool
		u.Tokens, changed = addTo(u.Tokens, token, false)
		return changed
	})
	return err
}

func (r *Users) RemoveToken(_ context.Context, id, token string) error {
	_, err := r.update("users.RemoveToken", id, func(u *models.User) bool {
		var changed bool
		u.Tokens, changed = removeFrom(u.Tokens, token)
		return changed
	})
	return err
}

func (r *Users) ClearTokens(_ context.Context, id string) error {
	_, err := r.update("users.ClearTokens", id, func(u *models.User) bool {
		u.Tokens = []string{}
		return true
	})
	return err
}

func (r *Users) HasToken(_ context.Context, id, token string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.HasToken"); err != nil {
		return false, err
	}
	_, u := find(r.s.users, userID, id)
	return u != nil && slices.Contains(u.Tokens, token), nil
}

func listOf(u *models.User, list repository.UserList) *[]string {
	switch list {
	case repository.ListFollowers:
		return &u.Followers
	case repository.ListFollowing:
		return &u.Following
	case repository.ListLikedStuff:
		return &u.LikedStuff
	case repository.ListLikedCollections:
		return &u.LikedCollections
	}
	return nil
}

func (r *Users) AddToList(_ context.Context, id string, list repository.UserList, value string) (bool, error) {
	return r.update("users.AddToList", id, func(u *models.User) bool {
		set := listOf(u, list)
		var changed bool
		*set, changed = addTo(*set, value, list.Prepends())
		return changed
	})
}

func (r *Users) RemoveFromList(_ context.Context, id string, list repository.UserList, value string) (bool, error) {
	return r.update("users.RemoveFromList", id, func(u *models.User) bool {
		set := listOf(u, list)
		var changed bool
		*set, changed = removeFrom(*set, value)
		return changed
	})
}

func (r *Users) strip(op, value string, lists ...repository.UserList) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail(op); err != nil {
		return 0, err
	}
	var n int64
	for _, u := range r.s.users {
		var touched bool
		for _, list := range lists {
			set := listOf(u, list)
			var changed bool
			*set, changed = removeFrom(*set, value)
			touched = touched || changed
		}
		if touched {
			n++
		}
	}
	return n, nil
}

func (r *Users) StripLikedStuff(_ context.Context, stuffID string) (int64, error) {
	return r.strip("users.StripLikedStuff", stuffID, repository.ListLikedStuff)
}

func (r *Users) StripLikedCollection(_ context.Context, collectionID string) (int64, error) {
	return r.strip("users.StripLikedCollection", collectionID, repository.ListLikedCollections)
}

func (r *Users) StripFollowRefs(_ context.Context, id string) (int64, error) {
	return r.strip("users.StripFollowRefs", id, repository.ListFollowers, repository.ListFollowing)
}
