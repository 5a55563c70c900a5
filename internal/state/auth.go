package state

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"documind/internal/crypto"
	"documind/internal/localstore"
	"documind/internal/model"
)

type sessionRef struct {
	ID string `json:"id"`
}

func encodeSession(id string) (string, error) {
	b, err := json.Marshal(sessionRef{ID: id})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeSession(raw string) (string, error) {
	var ref sessionRef
	if err := json.Unmarshal([]byte(raw), &ref); err != nil {
		return "", err
	}
	if ref.ID == "" {
		return "", errors.New("session reference has no id")
	}
	return ref.ID, nil
}

// Login authenticates by email and password. Unknown accounts, wrong
// passwords and deactivated accounts all yield ErrAuthentication and leave
// no session behind.
func (c *Controller) Login(ctx context.Context, email, password string) (model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return model.User{}, ErrNotReady
	}

	email = strings.TrimSpace(email)
	var found *model.User
	for i := range c.users {
		if c.users[i].Email == email {
			found = &c.users[i]
			break
		}
	}
	if found == nil || !found.Active() {
		return model.User{}, ErrAuthentication
	}
	if err := c.passwords.Compare(found.PasswordHash, password); err != nil {
		if !errors.Is(err, crypto.ErrMismatch) {
			c.logger.Warn().Err(err).Str("user_id", found.ID).Msg("stored password hash rejected")
		}
		return model.User{}, ErrAuthentication
	}

	raw, err := encodeSession(found.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("encode session: %w", err)
	}
	if err := c.store.PutSetting(ctx, SessionKey, raw); err != nil {
		return model.User{}, fmt.Errorf("persist session: %w", err)
	}

	cur := *found
	c.current = &cur
	c.logger.Info().Str("user_id", cur.ID).Msg("logged in")
	return cur.Public(), nil
}

// Logout ends the session and clears the persisted reference.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.logoutLocked(ctx)
}

func (c *Controller) logoutLocked(ctx context.Context) error {
	if c.current != nil {
		c.logger.Info().Str("user_id", c.current.ID).Msg("logged out")
	}
	c.current = nil
	if err := c.store.DeleteSetting(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentUser returns the logged-in user without credential material.
func (c *Controller) CurrentUser() (model.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return model.User{}, false
	}
	return c.current.Public(), true
}

// NewUser is the input of AddUser.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

// AddUser creates an Active account. Only administrators may add users.
func (c *Controller) AddUser(ctx context.Context, in NewUser) (model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAdminLocked(); err != nil {
		return model.User{}, err
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return model.User{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if in.Role != model.RoleAdmin && in.Role != model.RoleUser {
		return model.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	for _, u := range c.users {
		if strings.EqualFold(u.Email, in.Email) {
			return model.User{}, ErrDuplicateEmail
		}
	}

	hash, err := c.passwords.Hash(in.Password)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := model.User{
		ID:           "u-" + c.newID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Avatar:       "https://picsum.photos/seed/" + url.PathEscape(in.Name) + "/100/100",
		Role:         in.Role,
		Status:       model.UserActive,
	}
	if err := localstore.Save(ctx, c.store, localstore.Users, u); err != nil {
		return model.User{}, err
	}

	users := make([]model.User, 0, len(c.users)+1)
	users = append(users, c.users...)
	c.users = append(users, u)
	return u.Public(), nil
}

// UserUpdate changes the non-nil fields of an account.
type UserUpdate struct {
	Name     *string
	Role     *model.Role
	Status   *model.UserStatus
	Password *string
}

// UpdateUser applies update to the account id. Only administrators may
// update accounts. Deactivating the logged-in user ends the session.
func (c *Controller) UpdateUser(ctx context.Context, id string, update UserUpdate) (model.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.requireAdminLocked(); err != nil {
		return model.User{}, err
	}

	idx := -1
	for i, u := range c.users {
		if u.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return model.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	u := c.users[idx]
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return model.User{}, fmt.Errorf("%w: name is empty", ErrInvalidInput)
		}
		u.Name = name
	}
	if update.Role != nil {
		if *update.Role != model.RoleAdmin && *update.Role != model.RoleUser {
			return model.User{}, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *update.Role)
		}
		u.Role = *update.Role
	}
	if update.Status != nil {
		if *update.Status != model.UserActive && *update.Status != model.UserDeactivated {
			return model.User{}, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *update.Status)
		}
		u.Status = *update.Status
	}
	if update.Password != nil {
		if *update.Password == "" {
			return model.User{}, fmt.Errorf("%w: password is empty", ErrInvalidInput)
		}
		hash, err := c.passwords.Hash(*update.Password)
		if err != nil {
			return model.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	if err := localstore.Save(ctx, c.store, localstore.Users, u); err != nil {
		return model.User{}, err
	}
	users := make([]model.User, len(c.users))
	copy(users, c.users)
	users[idx] = u
	c.users = users

	if c.current != nil && c.current.ID == id {
		if !u.Active() {
			if err := c.logoutLocked(ctx); err != nil {
				return u.Public(), err
			}
		} else {
			cur := u
			c.current = &cur
		}
	}
	return u.Public(), nil
}

func (c *Controller) requireAdminLocked() error {
	if !c.ready {
		return ErrNotReady
	}
	if c.current == nil {
		return ErrNotLoggedIn
	}
	if c.current.Role != model.RoleAdmin {
		return ErrForbidden
	}
	return nil
}
