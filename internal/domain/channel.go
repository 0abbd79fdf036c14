package domain

import (
	"slices"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleModerator Role = "Moderator"
	RoleMember    Role = "Member"
)

type Permission string

const (
	PermRead          Permission = "read"
	PermWrite         Permission = "write"
	PermManageMembers Permission = "manage_members"
	PermManageRoles   Permission = "manage_roles"
	PermManageInvites Permission = "manage_invites"
)

// Фиксированные наборы прав. Писать в канал может только Admin.
var rolePermissions = map[Role][]Permission{
	RoleAdmin:     {PermRead, PermWrite, PermManageMembers, PermManageRoles, PermManageInvites},
	RoleModerator: {PermRead, PermManageMembers, PermManageInvites},
	RoleMember:    {PermRead},
}

func ParseRole(s string) (Role, error) {
	for r := range rolePermissions {
		if strings.EqualFold(string(r), strings.TrimSpace(s)) {
			return r, nil
		}
	}
	return "", ErrInvalidRole
}

func (r Role) Permissions() []Permission {
	return slices.Clone(rolePermissions[r])
}

func (r Role) Can(p Permission) bool {
	return slices.Contains(rolePermissions[r], p)
}

// PermissionString: формат хранения в channel_roles.permissions.
func (r Role) PermissionString() string {
	perms := rolePermissions[r]
	parts := make([]string, len(perms))
	for i, p := range perms {
		parts[i] = string(p)
	}
	return strings.Join(parts, ",")
}

// DefaultRoles создаются вместе с каналом.
func DefaultRoles() []Role {
	return []Role{RoleAdmin, RoleModerator, RoleMember}
}

type Channel struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatorID   UserID    `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *Channel) Room() Room { return ChannelRoom(c.Name) }

type ChannelMember struct {
	ChannelID int64     `json:"channel_id"`
	UserID    UserID    `json:"user_id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (m *ChannelMember) Can(p Permission) bool { return m.Role.Can(p) }

type Invite struct {
	ID        int64      `json:"id"`
	ChannelID int64      `json:"channel_id"`
	Code      string     `json:"code"`
	CreatedBy UserID     `json:"created_by"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	MaxUses   *int       `json:"max_uses,omitempty"`
	Uses      int        `json:"uses"`
	CreatedAt time.Time  `json:"created_at"`
}

// CheckRedeemable: просроченный или исчерпанный инвайт не принимается.
func (i *Invite) CheckRedeemable(now time.Time) error {
	if i.ExpiresAt != nil && !now.Before(*i.ExpiresAt) {
		return ErrInviteExpired
	}
	if i.MaxUses != nil && i.Uses >= *i.MaxUses {
		return ErrInviteExhausted
	}
	return nil
}
