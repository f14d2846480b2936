package membership

import (
	"context"
	"encoding/base64"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// resetUserPasswordSQL updates the stored hash in the same transaction that
// consumes the reset record.
const resetUserPasswordSQL = `UPDATE users SET password_hash = ?, updated_at = current_timestamp WHERE id = ?`

// FinalizePasswordResetMessage consumes a reset token and sets the new
// password. The password arrives base64 encoded like every other password
// field on the wire.
type FinalizePasswordResetMessage struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (e FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

func (e FinalizePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Token, validation.Required),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 0)),
	)
}

// FinalizePasswordResetHandler verifies a reset token, swaps the password
// hash, marks the record used, and evicts every live session of the user.
type FinalizePasswordResetHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewFinalizePasswordResetHandler(repo RepositoryManager) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	h.logger = logger
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload")
	}

	password, err := base64.StdEncoding.DecodeString(event.Password)
	if err != nil || len(password) == 0 {
		return goerrors.New("password is not valid base64", goerrors.CategoryValidation).
			WithTextCode("INVALID_PASSWORD_ENCODING")
	}

	reset := &PasswordReset{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		reset, err = h.repo.PasswordResets().GetByID(ctx, event.Token)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return goerrors.New("invalid or expired password reset token", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve password reset request")
		}

		if reset.Status != ResetRequestedStatus {
			return goerrors.New("password reset token has already been used", goerrors.CategoryConflict).
				WithTextCode("TOKEN_ALREADY_USED")
		}

		if reset.CreatedAt == nil {
			return goerrors.New("password reset record is missing creation date", goerrors.CategoryInternal)
		}

		if time.Since(*reset.CreatedAt) > PasswordResetTTL {
			return goerrors.New("password reset token has expired", goerrors.CategoryValidation).
				WithTextCode(TextCodeTokenExpired)
		}

		if reset.UserID == nil {
			return goerrors.New("password reset record is not associated with a user", goerrors.CategoryInternal)
		}

		passwordHash, err := HashPassword(string(password))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		if _, err = h.repo.Users().RawTx(ctx, tx, resetUserPasswordSQL, passwordHash, reset.UserID.String()); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password in database")
		}

		used := &PasswordReset{ID: reset.ID, Status: ResetCompletedStatus, UpdatedAt: timePtr(time.Now())}
		if _, err := h.repo.PasswordResets().UpdateTx(ctx, tx, used); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update password reset status")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	// The old credential is gone, so every session minted with it goes too.
	// Best effort: the reset already succeeded.
	if _, err := h.repo.Sessions().DeleteByUser(ctx, *reset.UserID); err != nil {
		h.logger.Warn("failed to evict sessions after password reset", "user_id", reset.UserID.String(), "error", err)
	}

	h.logger.Info("password reset completed", "user_id", reset.UserID.String())
	return nil
}
