package taskauth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole       `bun:"user_role,notnull" json:"user_role,omitempty"`
	FullName       string         `bun:"full_name,notnull" json:"full_name,omitempty"`
	Email          string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string         `bun:"password_hash" json:"-"`
	IsActive       bool           `bun:"is_active,notnull,default:true" json:"is_active"`
	LoginAttempts  int            `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time     `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Metadata       map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// SecurityEventRecord is the persisted form of a SecurityEvent. UserID is
// nullable so events for unresolved subjects survive, and the users relation
// uses ON DELETE SET NULL so the audit trail outlives the account.
type SecurityEventRecord struct {
	bun.BaseModel `bun:"table:security_events,alias:sev"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        *uuid.UUID     `bun:"user_id,nullzero" json:"user_id,omitempty"`
	User          *User          `bun:"rel:has-one,join:user_id=id" json:"user,omitempty"`
	EventType     string         `bun:"event_type,notnull" json:"event_type,omitempty"`
	Severity      string         `bun:"severity,notnull" json:"severity,omitempty"`
	Details       map[string]any `bun:"details" json:"details,omitempty"`
	IPAddress     string         `bun:"ip_address" json:"ip_address,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
