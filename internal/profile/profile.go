// Package profile owns the dashboard profile rows backing resolved sessions.
package profile

import (
	"context"
	"fmt"
	"strings"
	"time"

	id "opsdash/pkg/domain"
)

// Privilege is the dashboard privilege tier stored on a profile. Mapping
// privileges to capabilities happens elsewhere; the session engine only
// carries the value.
type Privilege string

const (
	PrivilegeViewer     Privilege = "viewer"
	PrivilegeAdmin      Privilege = "admin"
	PrivilegeSuperAdmin Privilege = "superadmin"
)

// Profile is one dashboard account row. A non-nil DeletedAt marks the
// account as deactivated without removing the row.
type Profile struct {
	ID         id.UserID
	Name       string
	Username   string
	Privilege  Privilege
	Department string
	AvatarURL  string
	DeletedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Deactivated reports whether the soft-delete marker is set.
func (p *Profile) Deactivated() bool { return p.DeletedAt != nil }

// Patch is a partial profile update. Nil fields are left unchanged.
type Patch struct {
	Name       *string
	Username   *string
	Department *string
	AvatarURL  *string
}

// DeletionStatus is the result of the soft-delete check, which must see
// deactivated rows that Find filters out.
type DeletionStatus struct {
	DeletedAt *time.Time
}

// Deleted reports whether the account is deactivated.
func (s DeletionStatus) Deleted() bool { return s.DeletedAt != nil }

// Store is the profile persistence contract.
//
// Find filters to non-deleted rows and returns sentinel.ErrNotFound both for
// absent and for deactivated profiles; DeletionStatus is the only read that
// sees the soft-delete marker. Insert returns sentinel.ErrConflict on a
// username uniqueness violation.
type Store interface {
	Find(ctx context.Context, userID id.UserID) (*Profile, error)
	DeletionStatus(ctx context.Context, userID id.UserID) (DeletionStatus, error)
	Insert(ctx context.Context, p *Profile) (*Profile, error)
	Update(ctx context.Context, userID id.UserID, patch Patch) (*Profile, error)
}

// DeriveUsername builds the default username from the email local-part,
// keeping only characters that survive the username column's constraint.
func DeriveUsername(email string) string {
	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}
	local = strings.ToLower(local)

	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "member"
	}
	return b.String()
}

// SuffixUsername disambiguates a conflicting username with a time-based
// suffix. Used for the single creation retry after a uniqueness conflict.
func SuffixUsername(base string, now time.Time) string {
	return fmt.Sprintf("%s-%d", base, now.Unix())
}

func (p Patch) apply(dst *Profile) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Username != nil {
		dst.Username = *p.Username
	}
	if p.Department != nil {
		dst.Department = *p.Department
	}
	if p.AvatarURL != nil {
		dst.AvatarURL = *p.AvatarURL
	}
}
