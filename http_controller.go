package taskauth

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAuthRoutes mounts the public authentication endpoints. Protected
// endpoints are mounted separately with RegisterSessionRoutes so callers can
// hand in their configured guard.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")

	app.
		Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh")

	app.
		Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("auth.register")
}

// RegisterSessionRoutes mounts the session introspection endpoint behind the
// given guard middleware.
func RegisterSessionRoutes[T any](app router.Router[T], guard router.MiddlewareFunc, opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.
		Get(controller.Routes.Session, controller.SessionShow, guard).
		SetName("auth.session")
}

type AuthControllerRoutes struct {
	Login    string
	Refresh  string
	Register string
	Session  string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Routes       *AuthControllerRoutes
	Auther       HTTPAuthenticator
	Recorder     SecurityRecorder
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Recorder:     noopSecurityRecorder{},
		Routes: &AuthControllerRoutes{
			Login:    "/auth/login",
			Refresh:  "/auth/refresh",
			Register: "/auth/register",
			Session:  "/auth/session",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRecorder(recorder SecurityRecorder) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Recorder = normalizeSecurityRecorder(recorder)
		return c
	}
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// GetEmail returns the account email
func (r LoginRequest) GetEmail() string {
	return r.Email
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return badRequestResponse(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return badRequestResponse(ctx, "Error validating payload", FormatValidationErrorToMap(err))
	}

	if a.Debug {
		a.Logger.Debug("auth login payload", "payload", print.MaybePrettyJSON(payload))
	}

	pair, err := a.Auther.Login(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, pair)
}

// RefreshRequest payload
type RefreshRequest struct {
	RefreshToken string `form:"refresh_token" json:"refresh_token"`
}

// GetRefreshToken returns the refresh token
func (r RefreshRequest) GetRefreshToken() string {
	return r.RefreshToken
}

// Validate will run validation rules
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.RefreshToken,
			validation.Required,
		),
	)
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	payload := new(RefreshRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("refresh parse payload", "error", err)
		return badRequestResponse(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		return badRequestResponse(ctx, "Error validating payload", FormatValidationErrorToMap(err))
	}

	token, err := a.Auther.Refresh(ctx, payload)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   TokenTypeBearer,
	})
}

// RegistrationCreatePayload is the registration payload
type RegistrationCreatePayload struct {
	FullName        string `form:"full_name" json:"full_name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(10, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return badRequestResponse(ctx, "Error parsing body", nil)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return badRequestResponse(ctx, "Error validating payload", FormatValidationErrorToMap(err))
	}

	var created *User
	req := RegisterUserMessage{
		FullName: payload.FullName,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(u *User) {
			created = u
		},
	}

	registerUser := NewRegisterUserHandler(a.Repo).WithSecurityRecorder(a.Recorder)
	if err := registerUser.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register user error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, userView(created))
}

// SessionShow echoes the authenticated session back to the caller. The guard
// has already validated the token and resolved the identity by the time this
// runs.
func (a *AuthController) SessionShow(ctx router.Context) error {
	claims, ok := GetRouterClaims(ctx, "")
	if !ok {
		return a.ErrorHandler(ctx, ErrTokenMalformed)
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.JSON(router.StatusOK, session)
}

// userView is the public shape of a user record
func userView(u *User) map[string]any {
	if u == nil {
		return nil
	}
	return map[string]any{
		"id":         u.ID.String(),
		"email":      u.Email,
		"full_name":  u.FullName,
		"role":       u.Role,
		"is_active":  u.IsActive,
		"created_at": u.CreatedAt,
	}
}

func badRequestResponse(ctx router.Context, message string, details map[string]string) error {
	body := map[string]any{
		"error": map[string]any{
			"message": message,
		},
	}
	if len(details) > 0 {
		body["error"].(map[string]any)["validation"] = details
	}
	return ctx.JSON(fiber.StatusBadRequest, body)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return fmt.Errorf("values must match")
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field-to-message map for JSON responses.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	return respondRichError(c, err)
}
