package membership

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	tokenTTL   int
	issuer     string
	logger     Logger
}

// NewTokenService creates a new TokenService instance. tokenTTL is in
// seconds; zero falls back to DefaultTokenTTL.
func NewTokenService(cfg Config, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	ttl := cfg.GetTokenTTL()
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenServiceImpl{
		signingKey: []byte(cfg.GetSigningKey()),
		tokenTTL:   ttl,
		issuer:     cfg.GetIssuer(),
		logger:     logger,
	}
}

// Generate creates a user JWT with subject, email, and role claims
func (ts *TokenServiceImpl) Generate(identity Identity) (string, error) {
	now := time.Now()
	claims := &UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl())),
		},
		Email:    identity.Email(),
		UserRole: identity.Role(),
	}

	return ts.SignClaims(claims)
}

// SignClaims signs user claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *UserClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	return ts.sign(claims)
}

// SignInvitation mints an invitation token. The variant payload is applied
// under the role tag so only the matching conditional field is present.
func (ts *TokenServiceImpl) SignInvitation(invite Invite) (string, error) {
	if err := invite.Validate(); err != nil {
		return "", err
	}

	now := time.Now()
	claims := &InvitationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl())),
		},
		Name:     invite.Name,
		Email:    invite.Email,
		RoleType: invite.Role.RoleType(),
	}
	invite.Role.applyTo(claims)

	return ts.sign(claims)
}

// Validate parses and validates a user token, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (*UserClaims, error) {
	claims := &UserClaims{}
	if err := ts.parseInto(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateInvitation parses and validates an invitation token
func (ts *TokenServiceImpl) ValidateInvitation(tokenString string) (*InvitationClaims, error) {
	claims := &InvitationClaims{}
	if err := ts.parseInto(tokenString, claims); err != nil {
		return nil, err
	}
	if _, err := claims.Role(); err != nil {
		return nil, err
	}
	return claims, nil
}

func (ts *TokenServiceImpl) sign(claims jwt.Claims) (string, error) {
	if len(ts.signingKey) == 0 {
		return "", ErrMissingSigningKey
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *TokenServiceImpl) parseInto(tokenString string, claims jwt.Claims) error {
	if len(ts.signingKey) == 0 {
		return ErrMissingSigningKey
	}

	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return ErrTokenMalformed
	}

	return nil
}

func (ts *TokenServiceImpl) ttl() time.Duration {
	return time.Duration(ts.tokenTTL) * time.Second
}
