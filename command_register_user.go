package membership

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// RegisterUserMessage carries the registration payload. Password is base64
// encoded on the wire (client contract) and decoded before hashing.
type RegisterUserMessage struct {
	Name          string            `json:"name"`
	Username      string            `json:"username"`
	Email         string            `json:"email"`
	Password      string            `json:"password"`
	Role          string            `json:"role"`
	About         string            `json:"about"`
	Degree        string            `json:"degree"`
	Postgraduate  string            `json:"postgraduate"`
	ExpertiseArea string            `json:"expertise_area"`
	ResearchWork  string            `json:"research_work"`
	ProfilePic    string            `json:"profile_picture"`
	SocialMedia   map[string]string `json:"social_media"`
	UseHashid     bool              `json:"-"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate runs the field rules. The minimum password length applies to the
// wire field, matching the previous backend.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&e.Username, validation.Length(0, 255)),
		validation.Field(&e.Email, validation.Required, is.Email, validation.Length(1, 255)),
		validation.Field(&e.Password, validation.Required, validation.Length(8, 0)),
		validation.Field(&e.Role, validation.Required, validation.In(rolesIn()...)),
		validation.Field(&e.Degree, validation.Length(0, 255)),
		validation.Field(&e.Postgraduate, validation.Length(0, 255)),
		validation.Field(&e.ExpertiseArea, validation.Length(0, 255)),
		validation.Field(&e.ResearchWork, validation.Length(0, 255)),
		validation.Field(&e.ProfilePic, validation.Length(0, 255)),
	)
}

// RegisterUserHandler persists a new user and grants the requested role.
type RegisterUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	h.logger = logger
	return h
}

// Execute validates the payload and creates the user plus its role grant in
// a single transaction, so a missing role never leaves an orphaned account.
func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload")
	}

	// Decode first, hash the plaintext. Hashing the encoded form would
	// break logins from every existing client.
	password, err := base64.StdEncoding.DecodeString(event.Password)
	if err != nil || len(password) == 0 {
		return nil, goerrors.New("password is not valid base64", goerrors.CategoryValidation).
			WithTextCode("INVALID_PASSWORD_ENCODING")
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(string(password))
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Name = event.Name
		user.Username = event.Username
		// stored lowercased so the case-insensitive login lookup matches
		user.Email = strings.TrimSpace(strings.ToLower(event.Email))
		user.Role = event.Role
		user.Status = UserStatusActive
		user.About = event.About
		user.Degree = event.Degree
		user.Postgraduate = event.Postgraduate
		user.ExpertiseArea = event.ExpertiseArea
		user.ResearchWork = event.ResearchWork
		user.ProfilePic = event.ProfilePic
		user.SocialMedia = event.SocialMedia
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		role, err := h.repo.Roles().GetByIdentifier(ctx, event.Role)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrRoleNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to look up role")
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		if err := h.repo.Users().AssignRoleTx(ctx, tx, user.ID, role.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not assign role")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}

		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	h.logger.Info("registered user", "user_id", user.ID.String(), "role", user.Role)

	return user, nil
}
