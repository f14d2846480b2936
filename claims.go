package membership

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserClaims is the claim set minted for a registered user: issuer, iat,
// exp, sub (user id), email, and role.
type UserClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	UserRole string `json:"role,omitempty"`
}

// UserID returns the subject claim
func (c *UserClaims) UserID() string {
	return c.RegisteredClaims.Subject
}

// Role returns the role claim
func (c *UserClaims) Role() string {
	return c.UserRole
}

// Expires returns the expiration time
func (c *UserClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *UserClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// claimsIdentity adapts validated claims back into an Identity for
// middleware and refresh.
type claimsIdentity struct {
	id    string
	email string
	role  string
}

func (a claimsIdentity) ID() string    { return a.id }
func (a claimsIdentity) Name() string  { return "" }
func (a claimsIdentity) Email() string { return a.email }
func (a claimsIdentity) Role() string  { return a.role }

var _ Identity = claimsIdentity{}

// IdentityFromClaims builds an Identity view over a validated claim set
func IdentityFromClaims(claims *UserClaims) Identity {
	return claimsIdentity{
		id:    claims.UserID(),
		email: claims.Email,
		role:  claims.Role(),
	}
}
