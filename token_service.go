package taskauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenTypeBearer is the fixed token-type label returned with issued tokens.
const TokenTypeBearer = "bearer"

// TokenService signs and validates class-aware JWTs. The signing key and both
// TTLs are injected at construction so the codec carries no ambient state and
// tests can run with throwaway secrets.
type TokenService interface {
	IssuePair(identity Identity) (*TokenPair, error)
	IssueAccess(identity Identity) (string, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string, class TokenClass) (AuthClaims, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, accessTTL, refreshTTL time.Duration, issuer string, audience jwt.ClaimStrings, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	// the refresh token must always outlive the access token
	if refreshTTL <= accessTTL {
		refreshTTL = 7 * 24 * time.Hour
		if refreshTTL <= accessTTL {
			refreshTTL = accessTTL * 2
		}
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
		audience:   audience,
		logger:     logger,
	}
}

// IssuePair mints the access/refresh token pair returned at login. Both carry
// the identity id and a role snapshot; only the class and TTL differ.
func (ts *TokenServiceImpl) IssuePair(identity Identity) (*TokenPair, error) {
	access, err := ts.generate(identity, TokenClassAccess, ts.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := ts.generate(identity, TokenClassRefresh, ts.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
	}, nil
}

// IssueAccess mints a single access token, used by the renewer.
func (ts *TokenServiceImpl) IssueAccess(identity Identity) (string, error) {
	return ts.generate(identity, TokenClassAccess, ts.accessTTL)
}

func (ts *TokenServiceImpl) generate(identity Identity, class TokenClass, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   identity.ID(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserRole:   identity.Role(),
		TokenClass: class,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		// never include the signing key in the error chain
		return "", errors.New("failed to sign JWT", errors.CategoryInternal)
	}

	return signedString, nil
}

// Validate parses and validates a token string, requiring the given class.
// The signature is verified before any claim, including expiry, is trusted;
// every failure maps onto the token error taxonomy and shares one generic
// user-facing message.
func (ts *TokenServiceImpl) Validate(tokenString string, class TokenClass) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		// the parser checks a single expected audience entry; the first
		// configured one is canonical and every issued token carries it
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		return nil, mapTokenError(err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if claims.TokenClass != class {
		return nil, ErrTokenWrongClass
	}

	return claims, nil
}

// mapTokenError folds golang-jwt parse errors into the package taxonomy. The
// jwt parser checks the signature before validating claims, so a tampered
// token reports the signature failure even when its expiry is also past.
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrTokenNotYetValid
	default:
		return ErrTokenMalformed
	}
}

func (ts *TokenServiceImpl) tokenDefaults() tokenDefaults {
	var aud jwt.ClaimStrings
	if len(ts.audience) > 0 {
		aud = make(jwt.ClaimStrings, len(ts.audience))
		copy(aud, ts.audience)
	}

	return tokenDefaults{
		issuer:     ts.issuer,
		audience:   aud,
		accessTTL:  ts.accessTTL,
		refreshTTL: ts.refreshTTL,
	}
}
