package access

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the profile's portal role
type Role = string

const (
	// RoleUser is the base role every account starts with
	RoleUser Role = "user"
	// RoleSubadmin is a delegated role whose capabilities come from a PermissionGrant
	RoleSubadmin Role = "subadmin"
	// RoleAdmin holds every permission unconditionally
	RoleAdmin Role = "admin"
)

// Profile is the portal account model. Rows are created externally at signup
// completion; this package only mutates the confirmation fields.
type Profile struct {
	bun.BaseModel    `bun:"table:profiles,alias:prf"`
	ID               uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email            string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Role             Role       `bun:"user_role,notnull" json:"user_role,omitempty"`
	EmailConfirmed   bool       `bun:"email_confirmed" json:"email_confirmed,omitempty"`
	EmailConfirmedAt *time.Time `bun:"email_confirmed_at,nullzero" json:"email_confirmed_at,omitempty"`
	CreatedAt        *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// EnsureRole defaults an empty role to the base user role.
func (p *Profile) EnsureRole() {
	if p != nil && p.Role == "" {
		p.Role = RoleUser
	}
}

// PermissionFlag names an individual subadmin capability
type PermissionFlag = string

const (
	// FlagUploadDocuments allows uploading new documents and versions
	FlagUploadDocuments PermissionFlag = "can_upload_documents"
	// FlagViewStats allows access to the statistics pages
	FlagViewStats PermissionFlag = "can_view_stats"
)

// IsValidPermissionFlag checks the flag against the closed set
func IsValidPermissionFlag(flag PermissionFlag) bool {
	switch flag {
	case FlagUploadDocuments, FlagViewStats:
		return true
	default:
		return false
	}
}

// PermissionGrant holds the per-subadmin capability flags. It is only
// consulted for profiles with the subadmin role.
type PermissionGrant struct {
	bun.BaseModel      `bun:"table:permission_grants,alias:pgr"`
	UserID             uuid.UUID  `bun:"user_id,pk,type:uuid" json:"user_id,omitempty"`
	CanUploadDocuments bool       `bun:"can_upload_documents" json:"can_upload_documents,omitempty"`
	CanViewStats       bool       `bun:"can_view_stats" json:"can_view_stats,omitempty"`
	IsActive           bool       `bun:"is_active" json:"is_active,omitempty"`
	CreatedAt          *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt          *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Allows reports whether the grant enables the named flag. An inactive grant
// nullifies every flag regardless of its individual values.
func (g *PermissionGrant) Allows(flag PermissionFlag) bool {
	if g == nil || !g.IsActive {
		return false
	}

	switch flag {
	case FlagUploadDocuments:
		return g.CanUploadDocuments
	case FlagViewStats:
		return g.CanViewStats
	default:
		return false
	}
}

// ConfirmationState is the explicit email-confirmation progression
type ConfirmationState string

const (
	// ConfirmationNoProfile means no profile row exists for the user yet
	ConfirmationNoProfile ConfirmationState = "no-profile"
	// ConfirmationUnconfirmed means the email has not been confirmed
	ConfirmationUnconfirmed ConfirmationState = "unconfirmed"
	// ConfirmationFirst means confirmed but the second step is pending
	ConfirmationFirst ConfirmationState = "first-confirmed"
	// ConfirmationFull is the terminal state, both steps done
	ConfirmationFull ConfirmationState = "fully-confirmed"
)

// ClassifyConfirmation derives the explicit state from the profile row. The
// confirmed-at timestamp encodes the second confirmation step, so it is only
// meaningful once the boolean is already set.
func ClassifyConfirmation(p *Profile) ConfirmationState {
	if p == nil {
		return ConfirmationNoProfile
	}
	if !p.EmailConfirmed {
		return ConfirmationUnconfirmed
	}
	if p.EmailConfirmedAt == nil {
		return ConfirmationFirst
	}
	return ConfirmationFull
}
