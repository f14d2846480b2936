package membership

import (
	"context"
	"encoding/base64"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// Auther implements Authenticator on top of the token service, the user
// repository, and the session tracker.
type Auther struct {
	repo         RepositoryManager
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(repo RepositoryManager, cfg Config) *Auther {
	return &Auther{
		repo:         repo,
		tokenService: NewTokenService(cfg, defLogger{}),
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenService overrides the default token service.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	s.tokenService = ts
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login authenticates the email/password pair and mints a session token.
//
// The password arrives base64 encoded; that is a wire contract with existing
// clients, not a security control. It is decoded before any hashing or
// comparison. Every credential failure (bad base64, unknown email, wrong
// password) returns the same ErrInvalidCredentials so callers cannot probe
// which check failed.
func (s *Auther) Login(ctx context.Context, email, encodedPassword string, client ClientInfo) (*LoginResult, error) {
	password, err := base64.StdEncoding.DecodeString(encodedPassword)
	if err != nil || len(password) == 0 {
		s.logger.Warn("login password decode failed", "email", email)
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			s.logger.Warn("login user not found", "email", email)
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(string(password), user.PasswordHash); err != nil {
		if goerrors.Is(err, ErrMismatchedHashAndPassword) {
			s.logger.Warn("login password mismatch", "user_id", user.ID.String())
			return nil, ErrInvalidCredentials
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password hash")
	}

	// Hashes imported from the PHP backend get migrated to the current
	// scheme now that we hold the verified plaintext. A failed rehash must
	// never block the login.
	if IsLegacyHash(user.PasswordHash) {
		s.rehashLegacyPassword(ctx, user, string(password))
	}

	token, err := s.tokenService.Generate(userIdentity{user})
	if err != nil {
		s.logger.Error("login token generation failed", "user_id", user.ID.String(), "error", err)
		return nil, err
	}

	// Session tracking is best-effort: a write failure is logged and the
	// login still succeeds with the minted token.
	if err := s.repo.Sessions().Upsert(ctx, user.ID, token, client); err != nil {
		s.logger.Warn("session write failed, token still issued",
			"user_id", user.ID.String(),
			"error", err,
		)
	}

	nodeCode, err := s.resolveNodeCode(ctx, user)
	if err != nil {
		s.logger.Warn("node code resolution failed", "user_id", user.ID.String(), "error", err)
		nodeCode = ""
	}

	return &LoginResult{
		Token:    token,
		Role:     user.Role,
		NodeCode: nodeCode,
	}, nil
}

// Logout deletes the session holding the given token. Deleting an already
// absent session is not an error.
func (s *Auther) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrMissingToken
	}

	deleted, err := s.repo.Sessions().DeleteByToken(ctx, token)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete session")
	}

	s.logger.Debug("logout", "sessions_deleted", deleted)
	return nil
}

// LogoutAll evicts every session the user owns, across all devices.
func (s *Auther) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	deleted, err := s.repo.Sessions().DeleteByUser(ctx, userID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user sessions")
	}

	s.logger.Info("logout all", "user_id", userID.String(), "sessions_deleted", deleted)
	return nil
}

// Refresh mints a new token for an identity already authenticated by the
// bearer middleware. It does not touch the session store.
func (s *Auther) Refresh(ctx context.Context, identity Identity) (string, error) {
	if identity == nil {
		return "", ErrRefreshFailed
	}

	token, err := s.tokenService.Generate(identity)
	if err != nil {
		s.logger.Error("refresh token generation failed", "user_id", identity.ID(), "error", err)
		return "", goerrors.Wrap(err, ErrRefreshFailed.Category, ErrRefreshFailed.Message).
			WithTextCode(ErrRefreshFailed.TextCode)
	}

	return token, nil
}

// IdentityFromToken validates the bearer token and adapts its claims into
// an Identity. Any validation failure means unauthenticated.
func (s *Auther) IdentityFromToken(ctx context.Context, token string) (Identity, error) {
	claims, err := s.tokenService.Validate(token)
	if err != nil {
		return nil, err
	}
	return IdentityFromClaims(claims), nil
}

func (s *Auther) rehashLegacyPassword(ctx context.Context, user *User, password string) {
	hash, err := HashPassword(password)
	if err != nil {
		s.logger.Warn("legacy password rehash failed", "user_id", user.ID.String(), "error", err)
		return
	}

	if err := s.repo.Users().UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.Warn("legacy password hash update failed", "user_id", user.ID.String(), "error", err)
		return
	}

	user.PasswordHash = hash
	s.logger.Info("rehashed legacy password", "user_id", user.ID.String())
}

// resolveNodeCode finds the organizational code attached to the login
// response: node leaders report the node they lead, members the node they
// belong to, admins none.
func (s *Auther) resolveNodeCode(ctx context.Context, user *User) (string, error) {
	nodes := s.repo.Nodes()

	switch user.Role {
	case RoleNodeLeader:
		return nodes.NodeCodeByLeader(ctx, user.ID)
	case RoleMember:
		nodeID, err := nodes.NodeIDByMember(ctx, user.ID)
		if err != nil || nodeID == 0 {
			return "", err
		}
		return nodes.NodeCodeByID(ctx, nodeID)
	default:
		return "", nil
	}
}

var _ Authenticator = (*Auther)(nil)

// userIdentity adapts a User row to the Identity interface
type userIdentity struct {
	user *User
}

func (u userIdentity) ID() string    { return u.user.ID.String() }
func (u userIdentity) Name() string  { return u.user.Name }
func (u userIdentity) Email() string { return u.user.Email }
func (u userIdentity) Role() string  { return u.user.Role }

var _ Identity = userIdentity{}
