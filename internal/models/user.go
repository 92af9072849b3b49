package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the sole authorization axis of the dashboard.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleLeadership Role = "leadership"
	RoleEmployee   Role = "employee"
)

// AllRoles returns every role. It is the default required-role set of a
// protected view.
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleLeadership, RoleEmployee}
}

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleLeadership, RoleEmployee:
		return true
	default:
		return false
	}
}

func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, role.IsValid()
}

type ContactInfo struct {
	Phone    *string `json:"phone,omitempty"`
	Location *string `json:"location,omitempty"`
}

// User is the application-level record of an authenticated actor.
type User struct {
	ID          uuid.UUID    `json:"id"`
	Email       string       `json:"email"`
	Name        string       `json:"name"`
	Role        Role         `json:"role"`
	AvatarURL   *string      `json:"avatar_url,omitempty"`
	ContactInfo *ContactInfo `json:"contact_info,omitempty"`
	Skills      []string     `json:"skills,omitempty"`
	Strengths   []string     `json:"strengths,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Clone returns a deep copy so callers can hand out snapshots that later
// merges never touch.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.AvatarURL != nil {
		v := *u.AvatarURL
		c.AvatarURL = &v
	}
	if u.ContactInfo != nil {
		ci := ContactInfo{}
		if u.ContactInfo.Phone != nil {
			v := *u.ContactInfo.Phone
			ci.Phone = &v
		}
		if u.ContactInfo.Location != nil {
			v := *u.ContactInfo.Location
			ci.Location = &v
		}
		c.ContactInfo = &ci
	}
	if u.Skills != nil {
		c.Skills = append([]string{}, u.Skills...)
	}
	if u.Strengths != nil {
		c.Strengths = append([]string{}, u.Strengths...)
	}
	return &c
}

// Identity is a verified account as the identity provider knows it, before
// any profile data is attached.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// ProfileUpdate is a partial profile change. Nil fields are left alone; an
// empty, non-nil Skills or Strengths slice clears the list.
type ProfileUpdate struct {
	Name        *string      `json:"name,omitempty"`
	AvatarURL   *string      `json:"avatar_url,omitempty"`
	ContactInfo *ContactInfo `json:"contact_info,omitempty"`
	Skills      []string     `json:"skills"`
	Strengths   []string     `json:"strengths"`
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.AvatarURL == nil && p.ContactInfo == nil &&
		p.Skills == nil && p.Strengths == nil
}

// Apply merges the update into u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.AvatarURL != nil {
		v := *p.AvatarURL
		u.AvatarURL = &v
	}
	if p.ContactInfo != nil {
		if u.ContactInfo == nil {
			u.ContactInfo = &ContactInfo{}
		}
		if p.ContactInfo.Phone != nil {
			v := *p.ContactInfo.Phone
			u.ContactInfo.Phone = &v
		}
		if p.ContactInfo.Location != nil {
			v := *p.ContactInfo.Location
			u.ContactInfo.Location = &v
		}
	}
	if p.Skills != nil {
		u.Skills = append([]string{}, p.Skills...)
	}
	if p.Strengths != nil {
		u.Strengths = append([]string{}, p.Strengths...)
	}
}
