package membership

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserStatus is the account lifecycle state
type UserStatus = string

const (
	// UserStatusActive is the status assigned on registration
	UserStatusActive UserStatus = "active"
	// UserStatusDisabled blocks authentication without deleting the account
	UserStatusDisabled UserStatus = "disabled"
)

// User is the user model
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string            `bun:"name,notnull" json:"name,omitempty"`
	Username      string            `bun:"username,unique,nullzero" json:"username,omitempty"`
	Email         string            `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string            `bun:"password_hash" json:"-"`
	Role          UserRole          `bun:"role,notnull" json:"role,omitempty"`
	Status        UserStatus        `bun:"status,notnull" json:"status,omitempty"`
	About         string            `bun:"about" json:"about,omitempty"`
	Degree        string            `bun:"degree" json:"degree,omitempty"`
	Postgraduate  string            `bun:"postgraduate" json:"postgraduate,omitempty"`
	ExpertiseArea string            `bun:"expertise_area" json:"expertise_area,omitempty"`
	ResearchWork  string            `bun:"research_work" json:"research_work,omitempty"`
	ProfilePic    string            `bun:"profile_picture" json:"profile_picture,omitempty"`
	SocialMedia   map[string]string `bun:"social_media,type:jsonb" json:"social_media,omitempty"`
	CreatedAt     *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Role is a grantable role entity. Registration fails when the requested
// role name has no row here.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:rol"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// RoleAssignment links a user to a granted role
type RoleAssignment struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	RoleID        uuid.UUID  `bun:"role_id,notnull,type:uuid" json:"role_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Session is one live authenticated session. At most one row exists per
// (user_id, ip_address, user_agent) fingerprint; rows are deleted, never
// updated in place.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Token         string     `bun:"token,notnull" json:"token,omitempty"`
	IPAddress     string     `bun:"ip_address" json:"ip_address,omitempty"`
	UserAgent     string     `bun:"user_agent" json:"user_agent,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Node is an organizational unit led by a node_leader
type Node struct {
	bun.BaseModel `bun:"table:nodes,alias:nod"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Code          string     `bun:"code,notnull,unique" json:"code,omitempty"`
	Name          string     `bun:"name" json:"name,omitempty"`
	NodeType      string     `bun:"node_type" json:"node_type,omitempty"`
	LeaderID      uuid.UUID  `bun:"leader_id,nullzero,type:uuid" json:"leader_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// Member links a user with role member to a node
type Member struct {
	bun.BaseModel `bun:"table:members,alias:mbr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	NodeID        int64      `bun:"node_id,notnull" json:"node_id,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// InvitationStatus values for the invitation record lifecycle
const (
	// InvitationPending means sent but not yet accepted
	InvitationPending = "pending"
	// InvitationAccepted means the invitee registered
	InvitationAccepted = "accepted"
)

// Invitation is the persisted record behind an invitation token. The sweep
// in command_clean_invitations.go removes rows left pending past the TTL.
type Invitation struct {
	bun.BaseModel `bun:"table:invitations,alias:inv"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	RoleType      string     `bun:"role_type,notnull" json:"role_type,omitempty"`
	NodeType      string     `bun:"node_type,nullzero" json:"node_type,omitempty"`
	NodeID        int64      `bun:"node_id,nullzero" json:"node_id,omitempty"`
	Token         string     `bun:"token" json:"token,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	SentAt        *time.Time `bun:"sent_at,nullzero" json:"sent_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// PasswordResetStatus values for the reset request lifecycle
const (
	// ResetRequestedStatus means the link was issued and not yet used
	ResetRequestedStatus = "requested"
	// ResetCompletedStatus means the password was changed with this request
	ResetCompletedStatus = "completed"
)

// PasswordReset is one issued reset link. The record id doubles as the
// opaque token in the emailed link; a row is single use.
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_resets,alias:pwr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID `bun:"user_id,type:uuid" json:"user_id,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Status        string     `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureStatus backfills the default status for rows created before the
// status column existed.
func (u *User) EnsureStatus() {
	if u.Status == "" {
		u.Status = UserStatusActive
	}
}
