package taskauth

import (
	"context"
	"reflect"
	"time"

	"github.com/goliatone/go-errors"
)

type Auther struct {
	provider     IdentityProvider
	signingKey   []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	issuer       string
	audience     []string
	logger       Logger
	tokenService TokenService
	recorder     SecurityRecorder
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetAccessTokenTTL(),
		opts.GetRefreshTokenTTL(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		signingKey:   []byte(opts.GetSigningKey()),
		accessTTL:    opts.GetAccessTokenTTL(),
		refreshTTL:   opts.GetRefreshTokenTTL(),
		audience:     opts.GetAudience(),
		issuer:       opts.GetIssuer(),
		logger:       defLogger{},
		tokenService: tokenService,
		recorder:     noopSecurityRecorder{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	// Update the TokenService logger as well
	s.tokenService = NewTokenService(
		s.signingKey,
		s.accessTTL,
		s.refreshTTL,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithSecurityRecorder configures a SecurityRecorder for auth events.
func (s *Auther) WithSecurityRecorder(recorder SecurityRecorder) *Auther {
	s.recorder = normalizeSecurityRecorder(recorder)
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the email/password pair and, on success, issues an
// access/refresh token pair. Exactly one security event is recorded per
// attempt, success or failure. Unknown email and wrong password both come
// back as ErrInvalidCredentials so the two cases are indistinguishable to the
// caller.
func (s *Auther) Login(ctx context.Context, email, password string, opts ...RequestOption) (*TokenPair, error) {
	meta := applyRequestOptions(opts)

	identity, err := s.provider.VerifyIdentity(ctx, email, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		s.emitSecurityEvent(ctx, loginFailureEvent(err, email, identitySubject(identity), meta))
		return nil, normalizeCredentialError(err)
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		s.emitSecurityEvent(ctx, loginFailureEvent(ErrIdentityNotFound, email, "", meta))
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokenService.IssuePair(identity)
	if err != nil {
		s.logger.Error("Login token issuance error", "error", err)
		s.emitSecurityEvent(ctx, loginFailureEvent(err, email, identity.ID(), meta))
		return nil, err
	}

	s.emitSecurityEvent(ctx, SecurityEvent{
		EventType: SecurityEventLoginSuccess,
		Severity:  SeverityLow,
		UserID:    identity.ID(),
		Email:     email,
		IPAddress: meta.ip,
	})

	return pair, nil
}

// Refresh validates a refresh token and issues a new access token. The
// refresh token itself is not rotated and stays valid until it expires. The
// identity is re-resolved so a deactivated or deleted account cannot renew.
func (s *Auther) Refresh(ctx context.Context, refreshToken string, opts ...RequestOption) (string, error) {
	meta := applyRequestOptions(opts)

	claims, err := s.tokenService.Validate(refreshToken, TokenClassRefresh)
	if err != nil {
		s.logger.Error("Refresh token validation failed", "error", err)
		s.emitSecurityEvent(ctx, refreshFailureEvent(err, "", meta))
		return "", err
	}

	identity, err := s.provider.FindIdentityByID(ctx, claims.Subject())
	if err != nil {
		s.logger.Error("Refresh identity lookup failed", "error", err)
		s.emitSecurityEvent(ctx, refreshFailureEvent(err, claims.Subject(), meta))
		return "", normalizeCredentialError(err)
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() || !identity.Active() {
		s.logger.Warn("Refresh blocked for inactive identity", "subject", claims.Subject())
		s.emitSecurityEvent(ctx, refreshFailureEvent(ErrAccountInactive, claims.Subject(), meta))
		return "", ErrAccountInactive
	}

	token, err := s.tokenService.IssueAccess(identity)
	if err != nil {
		s.logger.Error("Refresh token issuance error", "error", err)
		s.emitSecurityEvent(ctx, refreshFailureEvent(err, identity.ID(), meta))
		return "", err
	}

	return token, nil
}

// SessionFromToken validates an access token and returns the session encoded
// in its claims. Refresh tokens are rejected here regardless of validity.
func (s Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.Validate(raw, TokenClassAccess)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

// IdentityFromSession re-resolves the session subject against the identity
// store. The stored record wins over anything baked into the token.
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	identity, err := s.provider.FindIdentityByID(ctx, session.GetUserID())
	if err != nil {
		s.logger.Error("IdentityFromSession find identity by id", "error", err)
		return nil, err
	}

	return identity, nil
}

func (s *Auther) emitSecurityEvent(ctx context.Context, event SecurityEvent) {
	recorder := normalizeSecurityRecorder(s.recorder)

	if event.Details == nil {
		event.Details = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := recorder.Record(ctx, event); err != nil {
		s.logger.Warn("security recorder error", "error", err)
	}
}

// loginFailureEvent maps a login failure to its event type and severity.
// Crossing the attempt cap is the one failure that indicates active credential
// probing rather than user error, so it alone grades high. A login against a
// disabled account grades medium, every other failure low.
func loginFailureEvent(err error, email, userID string, meta requestMeta) SecurityEvent {
	eventType := SecurityEventLoginFailed
	severity := SeverityLow

	switch {
	case errors.Is(err, ErrAccountInactive):
		eventType = SecurityEventLoginDeniedInactive
		severity = SeverityMedium
	case errors.Is(err, ErrTooManyLoginAttempts):
		severity = SeverityHigh
	}

	return SecurityEvent{
		EventType: eventType,
		Severity:  severity,
		UserID:    userID,
		Email:     email,
		IPAddress: meta.ip,
		Details: map[string]any{
			"reason": errorTextCode(err),
		},
	}
}

func refreshFailureEvent(err error, userID string, meta requestMeta) SecurityEvent {
	return SecurityEvent{
		EventType: SecurityEventRefreshFailed,
		Severity:  SeverityLow,
		UserID:    userID,
		IPAddress: meta.ip,
		Details: map[string]any{
			"reason": errorTextCode(err),
		},
	}
}

// normalizeCredentialError folds internal lookup misses into the generic
// credential error so a missing account and a wrong password read the same.
func normalizeCredentialError(err error) error {
	if errors.Is(err, ErrIdentityNotFound) {
		return ErrInvalidCredentials
	}
	return err
}

func errorTextCode(err error) string {
	if err == nil {
		return ""
	}
	var richError *errors.Error
	if errors.As(err, &richError) && richError.TextCode != "" {
		return richError.TextCode
	}
	return err.Error()
}

func identitySubject(identity Identity) string {
	if identity == nil || reflect.ValueOf(identity).IsZero() {
		return ""
	}
	return identity.ID()
}
