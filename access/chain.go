package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/arenaforge/gameapi/auth"
	"github.com/arenaforge/gameapi/model"
	"github.com/arenaforge/gameapi/service"
)

var (
	ErrUnauthenticated = errors.New("could not validate credentials")
	ErrForbidden       = errors.New("forbidden")

	ErrBlocked          = fmt.Errorf("%w: account is blocked", ErrForbidden)
	ErrInsufficientRole = fmt.Errorf("%w: insufficient role", ErrForbidden)
)

// RoleSet is an explicit allow-set of roles.
type RoleSet map[model.Role]struct{}

// Roles builds a RoleSet.
func Roles(roles ...model.Role) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		s[r] = struct{}{}
	}
	return s
}

// Allows reports whether r is in the set.
func (s RoleSet) Allows(r model.Role) bool {
	_, ok := s[r]
	return ok
}

var (
	ModeratorRoles  = Roles(model.RoleModerator, model.RoleAdmin, model.RoleSuperAdmin)
	AdminRoles      = Roles(model.RoleAdmin, model.RoleSuperAdmin)
	SuperAdminRoles = Roles(model.RoleSuperAdmin)
)

// TokenVerifier turns a bearer token into claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserLookup loads users by id.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Chain runs the guard steps against a token verifier and user lookup.
type Chain struct {
	tokens TokenVerifier
	users  UserLookup
}

// NewChain creates a guard chain over the given token verifier and user store.
func NewChain(tokens TokenVerifier, users UserLookup) *Chain {
	return &Chain{tokens: tokens, users: users}
}

// ResolveUser verifies token and loads its user. A bad token and a user
// that no longer exists both yield ErrUnauthenticated.
func (c *Chain) ResolveUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := c.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	u, err := c.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return u, nil
}

// RequireActive rejects blocked users.
func RequireActive(u *model.User) error {
	if !u.IsActive {
		return ErrBlocked
	}
	return nil
}

// RequireRole rejects users whose role is outside allowed.
func RequireRole(u *model.User, allowed RoleSet) error {
	if !allowed.Allows(u.Role) {
		return ErrInsufficientRole
	}
	return nil
}

// Authenticate resolves the user and requires an active account.
func (c *Chain) Authenticate(ctx context.Context, token string) (*model.User, error) {
	u, err := c.ResolveUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := RequireActive(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authorize is Authenticate followed by a role check.
func (c *Chain) Authorize(ctx context.Context, token string, allowed RoleSet) (*model.User, error) {
	u, err := c.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := RequireRole(u, allowed); err != nil {
		return nil, err
	}
	return u, nil
}

// RequireModerator admits active moderators, admins and super admins.
func (c *Chain) RequireModerator(ctx context.Context, token string) (*model.User, error) {
	return c.Authorize(ctx, token, ModeratorRoles)
}

// RequireAdmin admits active admins and super admins.
func (c *Chain) RequireAdmin(ctx context.Context, token string) (*model.User, error) {
	return c.Authorize(ctx, token, AdminRoles)
}

// RequireSuperAdmin admits active super admins only.
func (c *Chain) RequireSuperAdmin(ctx context.Context, token string) (*model.User, error) {
	return c.Authorize(ctx, token, SuperAdminRoles)
}
