package membership

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeTokenExpired identifies expired token errors across layers
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed identifies malformed or badly signed tokens
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeInvalidCredentials is the single code for every credential failure
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// TextCodeRoleNotFound identifies registration against an unknown role
	TextCodeRoleNotFound = "ROLE_NOT_FOUND"
)

// ErrMissingSigningKey is a configuration error: the service cannot mint or
// verify tokens without a secret.
var ErrMissingSigningKey = goerrors.New("jwt signing key is not configured", goerrors.CategoryInternal).
	WithTextCode("MISSING_SIGNING_KEY").
	WithCode(goerrors.CodeInternal)

// ErrTokenExpired is returned when an otherwise valid token is past its exp claim.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers bad signatures, wrong algorithms, and parse failures.
// Callers treat it the same as ErrTokenExpired: the request is unauthenticated.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrInvalidCredentials is returned for every login failure that could leak
// account existence: unknown email, wrong password, or a password field that
// is not valid base64. The message never distinguishes which check failed.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrRoleNotFound is returned by registration when the requested role has no
// corresponding role entity.
var ErrRoleNotFound = goerrors.New("role not found", goerrors.CategoryValidation).
	WithTextCode(TextCodeRoleNotFound).
	WithCode(goerrors.CodeBadRequest)

// ErrMissingToken is returned by logout when no bearer token was provided.
var ErrMissingToken = goerrors.New("token not provided", goerrors.CategoryBadInput).
	WithTextCode("MISSING_TOKEN").
	WithCode(goerrors.CodeBadRequest)

// ErrRefreshFailed wraps any failure to mint a replacement token.
var ErrRefreshFailed = goerrors.New("could not refresh token", goerrors.CategoryInternal).
	WithTextCode("REFRESH_FAILED").
	WithCode(goerrors.CodeInternal)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrNoEmptyString rejects empty passwords before hashing
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode("EMPTY_PASSWORD").
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the bcrypt mismatch error, normalized
var ErrMismatchedHashAndPassword = goerrors.New("mismatched hash and password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
