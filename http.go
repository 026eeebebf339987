package taskauth

import (
	"context"
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-taskauth/middleware/jwtware"
)

// Middleware is the guard surface exposed to route registration code.
type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
	AdminRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

type RouteAuthenticator struct {
	auth         Authenticator
	tokenService TokenService
	provider     IdentityResolver
	cfg          Config
	Logger       Logger
	ErrorHandler func(c router.Context, err error) error
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)

// NewHTTPAuthenticator wires the authenticator into router middleware and
// handlers.
//
// The provider is optional, but passing nil weakens the guard: without it the
// middleware trusts the token snapshot instead of re-resolving the account on
// every request, so a deactivated or demoted account keeps its access until
// the token expires. Production wiring should always pass a provider; nil is
// for hosts that own identity elsewhere and accept stale-token access.
func NewHTTPAuthenticator(auther *Auther, provider IdentityResolver, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:          cfg,
		auth:         auther,
		tokenService: auther.TokenService(),
		provider:     provider,
		Logger:       defLogger{},
	}

	a.ErrorHandler = a.defaultErrHandler

	return a, nil
}

// ProtectedRoute guards a route with access token authentication. Refresh
// tokens never pass, the validator is bound to the access class.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return a.guard(cfg, errorHandler, "")
}

// AdminRoute guards a route with access token authentication plus an admin
// role requirement. A non-admin with a perfectly valid token gets 403.
func (a *RouteAuthenticator) AdminRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return a.guard(cfg, errorHandler, RoleAdmin)
}

func (a *RouteAuthenticator) guard(cfg Config, errorHandler func(router.Context, error) error, minimumRole string) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		guardCfg := jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
			TokenValidator:  accessTokenValidator{tokenService: a.tokenService},
			MinimumRole:     minimumRole,
			ContextEnricher: ContextEnricherAdapter,
		}

		if a.provider != nil {
			guardCfg.IdentityResolver = identityResolverAdapter{provider: a.provider}
		}

		return jwtware.New(guardCfg)(hf)
	}
}

// Login authenticates the payload and returns the issued token pair. The
// client address travels with the attempt for the audit trail.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (*TokenPair, error) {
	pair, err := a.auth.Login(ctx.Context(), payload.GetEmail(), payload.GetPassword(), WithClientIP(ctx.IP()))
	if err != nil {
		a.Logger.Error("Login error", "error", err)
		return nil, err
	}

	return pair, nil
}

// Refresh exchanges a refresh token for a new access token.
func (a *RouteAuthenticator) Refresh(ctx router.Context, payload RefreshPayload) (string, error) {
	token, err := a.auth.Refresh(ctx.Context(), payload.GetRefreshToken(), WithClientIP(ctx.IP()))
	if err != nil {
		a.Logger.Error("Refresh error", "error", err)
		return "", err
	}

	return token, nil
}

// MakeClientRouteAuthErrorHandler builds the guard error handler. With
// optional set, a failed authentication lets the request through
// unauthenticated instead of rejecting it.
func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else if errors.Is(err, jwtware.ErrInsufficientRole) {
			richErr = ErrForbidden
		} else if !errors.As(err, &richErr) {
			richErr = errors.Wrap(err, errors.CategoryAuth, genericTokenMessage).
				WithCode(errors.CodeUnauthorized)
		}

		if optional && richErr.Category != errors.CategoryAuthz {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return respondRichError(c, richErr)
}

// respondRichError maps a rich error onto its HTTP status and writes the
// standard error body.
func respondRichError(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		switch richErr.Category {
		case errors.CategoryRateLimit:
			status = http.StatusTooManyRequests
		case errors.CategoryAuth:
			status = router.StatusUnauthorized
		case errors.CategoryAuthz:
			status = router.StatusForbidden
		default:
			status = router.StatusInternalServerError
		}
	}

	return c.JSON(status, errorResponse(richErr))
}

// errorResponse is the wire shape for every error the auth surface returns.
// Token failures all share the same generic message; the text code is for
// logs and clients that want to branch without parsing prose.
func errorResponse(richErr *errors.Error) map[string]any {
	return map[string]any{
		"error": map[string]any{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	}
}

// accessTokenValidator binds the guard to the access token class.
type accessTokenValidator struct {
	tokenService TokenService
}

func (v accessTokenValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.tokenService.Validate(tokenString, TokenClassAccess)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// identityResolverAdapter bridges the root IdentityResolver into the
// middleware package without an import cycle.
type identityResolverAdapter struct {
	provider IdentityResolver
}

func (r identityResolverAdapter) FindIdentityByID(ctx context.Context, id string) (jwtware.Identity, error) {
	if r.provider == nil {
		return nil, nil
	}

	identity, err := r.provider.FindIdentityByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return identity, nil
}
