package domain

import (
	"strings"
	"time"
)

type UserID int64

type User struct {
	ID           UserID
	Username     string
	PasswordHash string
	Profile      Profile
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Profile struct {
	City      string `json:"city"`
	BioShort  string `json:"bio_short"`
	Country   string `json:"country"`
	Languages string `json:"languages"`
	BioFull   string `json:"bio_full"`
	Hobbies   string `json:"hobbies"`
}

// ProfilePatch: частичное обновление: nil означает «не трогать».
type ProfilePatch struct {
	City      *string
	BioShort  *string
	Country   *string
	Languages *string
	BioFull   *string
	Hobbies   *string
}

func (p ProfilePatch) Empty() bool {
	return p.City == nil && p.BioShort == nil && p.Country == nil &&
		p.Languages == nil && p.BioFull == nil && p.Hobbies == nil
}

// Apply применяет патч к профилю (нужно, чтобы обновить кэш без перечитывания).
func (p ProfilePatch) Apply(dst *Profile) {
	set := func(field *string, v *string) {
		if v != nil {
			*field = strings.TrimSpace(*v)
		}
	}
	set(&dst.City, p.City)
	set(&dst.BioShort, p.BioShort)
	set(&dst.Country, p.Country)
	set(&dst.Languages, p.Languages)
	set(&dst.BioFull, p.BioFull)
	set(&dst.Hobbies, p.Hobbies)
}

type UserSummary struct {
	ID       UserID `json:"id"`
	Username string `json:"username"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username}
}

// Создает нового пользователя, ожидает уже посчитанный хеш пароля.
func NewUser(username, passwordHash string, now time.Time, opts ...UserOption) (*User, error) {
	username = NormalizeUsername(username)
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, ErrInvalidCredentials
	}

	u := &User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

type UserOption func(*User)

func WithCity(city string) UserOption {
	return func(u *User) { u.Profile.City = strings.TrimSpace(city) }
}

func WithBioShort(bio string) UserOption {
	return func(u *User) { u.Profile.BioShort = strings.TrimSpace(bio) }
}

var reservedUsernames = map[string]struct{}{
	strings.TrimSuffix(groupPrefix, "_"):   {},
	strings.TrimSuffix(channelPrefix, "_"): {},
}

func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidateUsername: 3-32 символа [a-z0-9.-], первый символ буква или цифра.
// Подчёркивание запрещено: оно разделяет участников в id личной комнаты.
// "group" и "channel" зарезервированы: иначе id личной комнаты совпал бы с id группы или канала.
func ValidateUsername(s string) error {
	if len(s) < 3 || len(s) > 32 {
		return ErrInvalidUsername
	}
	if _, reserved := reservedUsernames[s]; reserved {
		return ErrReservedUsername
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case (c == '.' || c == '-') && i > 0:
		default:
			return ErrInvalidUsername
		}
	}
	return nil
}
