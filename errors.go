package taskauth

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCreds     = "invalid_credentials"
	TextCodeAccountInactive  = "account_inactive"
	TextCodeTooManyAttempts  = "too_many_login_attempts"
	TextCodeTokenMalformed   = "token_malformed"
	TextCodeTokenSignature   = "token_signature_invalid"
	TextCodeTokenExpired     = "token_expired"
	TextCodeTokenNotYetValid = "token_not_yet_valid"
	TextCodeTokenWrongClass  = "token_wrong_class"
	TextCodeEmptyPassword    = "empty_password"
)

// genericTokenMessage is the single user-facing message for every token
// rejection. The real reason never leaves the security-event detail.
const genericTokenMessage = "invalid or expired token"

// ErrInvalidCredentials covers both unknown email and wrong password so a
// caller cannot enumerate accounts. The message must stay identical for both
// paths.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the password comparison failure. It aliases
// the generic credential error on purpose; see ComparePasswordAndHash.
var ErrMismatchedHashAndPassword = ErrInvalidCredentials

// ErrAccountInactive is returned for a disabled account. Distinct from
// ErrInvalidCredentials: knowing an account is disabled gains an attacker
// nothing once the password already matched.
var ErrAccountInactive = errors.New("account disabled", errors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned when an account is cooling down.
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts)

// ErrIdentityNotFound is internal only; the issuer converts it to
// ErrInvalidCredentials before it can reach a caller.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode("identity_not_found").
	WithCode(errors.CodeNotFound)

// ErrTokenMalformed is returned for tokens that cannot be decoded.
var ErrTokenMalformed = errors.New(genericTokenMessage, errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignatureInvalid is returned when the token decodes but the
// signature does not verify: possible tampering or wrong key.
var ErrTokenSignatureInvalid = errors.New(genericTokenMessage, errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for a well-signed token whose expiry has passed.
var ErrTokenExpired = errors.New(genericTokenMessage, errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenNotYetValid is returned when issued-at/not-before is in the future.
var ErrTokenNotYetValid = errors.New(genericTokenMessage, errors.CategoryAuth).
	WithTextCode(TextCodeTokenNotYetValid).
	WithCode(errors.CodeUnauthorized)

// ErrTokenWrongClass is returned when a valid token of one class is presented
// where the other class is required.
var ErrTokenWrongClass = errors.New(genericTokenMessage, errors.CategoryAuth).
	WithTextCode(TextCodeTokenWrongClass).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when an authenticated identity lacks the required
// role.
var ErrForbidden = errors.New("insufficient role", errors.CategoryAuthz).
	WithTextCode("insufficient_role").
	WithCode(errors.CodeForbidden)

// ErrUnableToParseData is returned when session claims cannot be converted.
var ErrUnableToParseData = errors.New("unable to parse session data", errors.CategoryInternal).
	WithTextCode("session_parse_failed").
	WithCode(errors.CodeInternal)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// IsTokenError reports whether err belongs to the token rejection taxonomy.
func IsTokenError(err error) bool {
	if err == nil {
		return false
	}
	for _, sentinel := range []*errors.Error{
		ErrTokenMalformed,
		ErrTokenSignatureInvalid,
		ErrTokenExpired,
		ErrTokenNotYetValid,
		ErrTokenWrongClass,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// IsTokenExpiredError will check for expired tokens, including legacy
// string-matched errors coming from the JWT layer.
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
