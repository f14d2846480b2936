package membership

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// PasswordResetTTL is how long an issued reset link stays usable.
const PasswordResetTTL = 24 * time.Hour

// InitializePasswordResetMessage requests a reset link for the account
// behind the email, when one exists.
type InitializePasswordResetMessage struct {
	Email    string `json:"email"`
	ResetURL string `json:"reset_url"`
}

func (e InitializePasswordResetMessage) Type() string { return "user.password_reset" }

func (e InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// InitializePasswordResetHandler issues a single-use reset record and mails
// its link. An unknown email is not an error: the handler stays silent so
// the endpoint cannot be used to probe which accounts exist.
type InitializePasswordResetHandler struct {
	repo       RepositoryManager
	dispatcher *Dispatcher
	logger     Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, dispatcher *Dispatcher) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	h.logger = logger
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) || goerrors.IsNotFound(err) {
			h.logger.Info("password reset requested for unknown email", "email", event.Email)
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	reset := &PasswordReset{
		ID:     uuid.New(),
		UserID: &user.ID,
		Email:  user.Email,
		Status: ResetRequestedStatus,
	}
	if reset, err = h.repo.PasswordResets().Create(ctx, reset); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create password reset record")
	}

	h.dispatcher.Enqueue(Mail{
		To:      user.Email,
		Subject: "Reset your password",
		Body:    passwordResetBody(user.Name, event.ResetURL, reset.ID.String()),
	})

	h.logger.Info("password reset queued", "user_id", user.ID.String())
	return nil
}

func passwordResetBody(name, resetURL, token string) string {
	greeting := "Hello"
	if name != "" {
		greeting = fmt.Sprintf("Hello %s", name)
	}
	return fmt.Sprintf(
		"<p>%s,</p><p>A password reset was requested for your account. If this was you, choose a new password here:</p><p><a href=\"%s?token=%s\">Reset password</a></p><p>The link expires in 24 hours. Otherwise you can ignore this message.</p>",
		greeting, resetURL, token,
	)
}
