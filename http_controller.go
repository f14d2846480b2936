package membership

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// AuthController exposes the auth endpoints over fiber.
type AuthController struct {
	Auther        Authenticator
	Register      *RegisterUserHandler
	Invitations   *SendInvitationHandler
	ResetInit     *InitializePasswordResetHandler
	ResetFinalize *FinalizePasswordResetHandler
	Logger        Logger
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

// WithInvitations enables the invite endpoint.
func WithInvitations(handler *SendInvitationHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Invitations = handler
		return c
	}
}

// WithPasswordReset enables the password reset endpoints.
func WithPasswordReset(init *InitializePasswordResetHandler, finalize *FinalizePasswordResetHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ResetInit = init
		c.ResetFinalize = finalize
		return c
	}
}

func NewAuthController(auther Authenticator, register *RegisterUserHandler, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Auther:   auther,
		Register: register,
		Logger:   defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the auth endpoints on the app.
func RegisterAuthRoutes(app *fiber.App, controller *AuthController) {
	group := app.Group("/auth")
	group.Post("/register", controller.RegisterPost)
	group.Post("/login", controller.LoginPost)
	group.Post("/logout", controller.LogoutPost)
	group.Post("/logout-all", RequireAuth(controller.Auther), controller.LogoutAllPost)
	group.Post("/refresh", RequireAuth(controller.Auther), controller.RefreshPost)

	if controller.Invitations != nil {
		group.Post("/invite", RequireAuth(controller.Auther), controller.InvitePost)
	}

	if controller.ResetInit != nil && controller.ResetFinalize != nil {
		group.Post("/password/forgot", controller.PasswordForgotPost)
		group.Post("/password/reset", controller.PasswordResetPost)
	}
}

// InviteRequest payload. NodeType is required for node_leader invites,
// NodeID for member invites; the other must be absent.
type InviteRequest struct {
	Name      string `form:"name" json:"name"`
	Email     string `form:"email" json:"email"`
	RoleType  string `form:"role_type" json:"role_type"`
	NodeType  string `form:"node_type" json:"node_type"`
	NodeID    int64  `form:"node_id" json:"node_id"`
	AcceptURL string `form:"accept_url" json:"accept_url"`
}

// Invite converts the flat wire payload into the tagged variant.
func (r InviteRequest) Invite() (Invite, error) {
	invite := Invite{Name: r.Name, Email: r.Email}

	switch r.RoleType {
	case RoleAdmin:
		invite.Role = AdminInvite{}
	case RoleNodeLeader:
		if r.NodeType == "" || r.NodeID != 0 {
			return Invite{}, goerrors.New("node_leader invites carry node_type and nothing else", goerrors.CategoryValidation)
		}
		invite.Role = NodeLeaderInvite{NodeType: r.NodeType}
	case RoleMember:
		if r.NodeID == 0 || r.NodeType != "" {
			return Invite{}, goerrors.New("member invites carry node_id and nothing else", goerrors.CategoryValidation)
		}
		invite.Role = MemberInvite{NodeID: r.NodeID}
	default:
		return Invite{}, goerrors.New("unknown role_type", goerrors.CategoryValidation)
	}

	return invite, invite.Validate()
}

func (r InviteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.RoleType, validation.Required, validation.In(rolesIn()...)),
	)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
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

func (a *AuthController) RegisterPost(c *fiber.Ctx) error {
	payload := RegisterUserMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	user, err := a.Register.Execute(c.UserContext(), payload)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"data":    user,
	})
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := LoginRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  err.Error(),
		})
	}

	result, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password, ClientInfo{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"data":    result,
	})
}

func (a *AuthController) LogoutPost(c *fiber.Ctx) error {
	if err := a.Auther.Logout(c.UserContext(), BearerToken(c)); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}

func (a *AuthController) LogoutAllPost(c *fiber.Ctx) error {
	identity := IdentityFromCtx(c)
	if identity == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthenticated",
		})
	}

	userID, err := uuid.Parse(identity.ID())
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthenticated",
		})
	}

	if err := a.Auther.LogoutAll(c.UserContext(), userID); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "All sessions logged out",
	})
}

func (a *AuthController) RefreshPost(c *fiber.Ctx) error {
	identity := IdentityFromCtx(c)
	if identity == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthenticated",
		})
	}

	token, err := a.Auther.Refresh(c.UserContext(), identity)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Token refreshed successfully",
		"data": fiber.Map{
			"token": token,
		},
	})
}

func (a *AuthController) InvitePost(c *fiber.Ctx) error {
	payload := InviteRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  err.Error(),
		})
	}

	invite, err := payload.Invite()
	if err != nil {
		return a.renderError(c, err)
	}

	inviterTag := ""
	if identity := IdentityFromCtx(c); identity != nil {
		inviterTag = identity.Email()
	}

	record, err := a.Invitations.Execute(c.UserContext(), SendInvitationMessage{
		Invite:     invite,
		AcceptURL:  payload.AcceptURL,
		InviterTag: inviterTag,
	})
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Invitation sent",
		"data":    record,
	})
}

// PasswordForgotPost answers the same way whether or not the account
// exists, so the endpoint cannot enumerate emails.
func (a *AuthController) PasswordForgotPost(c *fiber.Ctx) error {
	payload := InitializePasswordResetMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if err := a.ResetInit.Execute(c.UserContext(), payload); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "If the account exists, a reset link has been sent",
	})
}

func (a *AuthController) PasswordResetPost(c *fiber.Ctx) error {
	payload := FinalizePasswordResetMessage{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if err := a.ResetFinalize.Execute(c.UserContext(), payload); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Password updated successfully",
	})
}

// renderError maps domain errors to HTTP responses. Credential failures all
// collapse into the same 401 body so the response never reveals which check
// rejected the login.
func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	switch {
	case goerrors.Is(err, ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid credentials",
		})
	case IsTokenExpiredError(err) || IsMalformedError(err):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthenticated",
		})
	case goerrors.Is(err, ErrRoleNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Role not found",
		})
	case goerrors.Is(err, ErrMissingToken):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Token not provided",
		})
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.Category {
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": richErr.Message,
			})
		case goerrors.CategoryConflict:
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": richErr.Message,
			})
		case goerrors.CategoryNotFound:
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": richErr.Message,
			})
		}
	}

	a.Logger.Error("unhandled controller error", "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "Server error",
	})
}
