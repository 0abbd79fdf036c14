package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// 12 случайных байт дают 16 символов base64url без паддинга.
const (
	inviteCodeBytes = 12
	InviteCodeLen   = 16
)

// NewInviteCode выдаёт код приглашения в канал.
func NewInviteCode() (string, error) {
	var b [inviteCodeBytes]byte
	if _, err := io.ReadFull(rand.Reader, b[:]); err != nil {
		return "", fmt.Errorf("invite code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// LooksLikeInviteCode отсекает заведомо чужие строки до похода в базу.
func LooksLikeInviteCode(s string) bool {
	if len(s) != InviteCodeLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return false
		}
	}
	return true
}
