package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an authenticated identity
type Identity interface {
	ID() string
	Name() string
	Email() string
	Role() string
}

// ClientInfo is the request fingerprint a session is keyed by
type ClientInfo struct {
	IP        string
	UserAgent string
}

// LoginResult is what a successful login hands back to the transport layer
type LoginResult struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	NodeCode string `json:"node_id,omitempty"`
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, encodedPassword string, client ClientInfo) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, identity Identity) (string, error)
	IdentityFromToken(ctx context.Context, token string) (Identity, error)
}

// TokenService mints and validates signed tokens with a fixed,
// process wide secret and algorithm.
type TokenService interface {
	Generate(identity Identity) (string, error)
	SignInvitation(invite Invite) (string, error)
	SignClaims(claims *UserClaims) (string, error)
	Validate(tokenString string) (*UserClaims, error)
	ValidateInvitation(tokenString string) (*InvitationClaims, error)
}

// SessionTracker persists the token-to-client mapping for live sessions
type SessionTracker interface {
	Upsert(ctx context.Context, userID uuid.UUID, token string, client ClientInfo) error
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// NodeDirectory resolves the organizational lookups login needs
type NodeDirectory interface {
	NodeCodeByLeader(ctx context.Context, leaderID uuid.UUID) (string, error)
	NodeIDByMember(ctx context.Context, userID uuid.UUID) (int64, error)
	NodeCodeByID(ctx context.Context, nodeID int64) (string, error)
}

// Config holds auth options, constructed once at process start and passed by
// reference into constructors. Never read from ambient state at call time.
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetTokenTTL() int
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] MEMBERSHIP "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] MEMBERSHIP "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] MEMBERSHIP "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] MEMBERSHIP "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func timePtr(t time.Time) *time.Time {
	return &t
}
