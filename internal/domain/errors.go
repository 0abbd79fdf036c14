package domain

import (
	"errors"
	"fmt"
)

// Корневые ошибки. Все частные ошибки ниже оборачивают одну из них,
// транспорт (HTTP/WS) маппит статус только по корню.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrExpired      = errors.New("expired")
	ErrExhausted    = errors.New("exhausted")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrChatNotFound    = fmt.Errorf("chat %w", ErrNotFound)
	ErrGroupNotFound   = fmt.Errorf("group %w", ErrNotFound)
	ErrChannelNotFound = fmt.Errorf("channel %w", ErrNotFound)
	ErrMessageNotFound = fmt.Errorf("message %w", ErrNotFound)
	ErrPostNotFound    = fmt.Errorf("post %w", ErrNotFound)
	ErrInviteNotFound  = fmt.Errorf("invite %w", ErrNotFound)
	ErrNotFollowing    = fmt.Errorf("subscription %w", ErrNotFound)
	ErrNotLiked        = fmt.Errorf("like %w", ErrNotFound)
	ErrNotReposted     = fmt.Errorf("repost %w", ErrNotFound)
	ErrNoReaction      = fmt.Errorf("reaction %w", ErrNotFound)
	ErrNoPinned        = fmt.Errorf("pinned message %w", ErrNotFound)

	ErrUsernameTaken    = fmt.Errorf("username taken: %w", ErrConflict)
	ErrGroupExists      = fmt.Errorf("group already exists: %w", ErrConflict)
	ErrChannelExists    = fmt.Errorf("channel already exists: %w", ErrConflict)
	ErrAlreadyMember    = fmt.Errorf("already a member: %w", ErrConflict)
	ErrAlreadyFollowing = fmt.Errorf("already following: %w", ErrConflict)
	ErrAlreadyLiked     = fmt.Errorf("already liked: %w", ErrConflict)
	ErrAlreadyReacted   = fmt.Errorf("already reacted: %w", ErrConflict)
	ErrAlreadyReposted  = fmt.Errorf("already reposted: %w", ErrConflict)
	ErrLastAdmin        = fmt.Errorf("channel must keep at least one admin: %w", ErrConflict)

	ErrNotSender        = fmt.Errorf("only the sender may do this: %w", ErrForbidden)
	ErrNotOwner         = fmt.Errorf("only the owner may do this: %w", ErrForbidden)
	ErrNotMember        = fmt.Errorf("not a member: %w", ErrForbidden)
	ErrNotParticipant   = fmt.Errorf("not a chat participant: %w", ErrForbidden)
	ErrPermissionDenied = fmt.Errorf("permission denied: %w", ErrForbidden)

	ErrInvalidUsername  = fmt.Errorf("username must be 3-32 chars of a-z, 0-9, '.' or '-': %w", ErrInvalidInput)
	ErrReservedUsername = fmt.Errorf("username is reserved: %w", ErrInvalidInput)
	ErrPasswordTooShort = fmt.Errorf("password too short: %w", ErrInvalidInput)
	ErrWeakPassword     = fmt.Errorf("password too weak: %w", ErrInvalidInput)
	ErrEmptyBody        = fmt.Errorf("empty message: %w", ErrInvalidInput)
	ErrBodyTooLong      = fmt.Errorf("message too long: %w", ErrInvalidInput)
	ErrEmptyContent     = fmt.Errorf("content is required: %w", ErrInvalidInput)
	ErrInvalidName      = fmt.Errorf("name must be 1-64 printable chars: %w", ErrInvalidInput)
	ErrInvalidRoom      = fmt.Errorf("invalid room id: %w", ErrInvalidInput)
	ErrInvalidPage      = fmt.Errorf("page must be >= 1 and per_page in [1..100]: %w", ErrInvalidInput)
	ErrInvalidRole      = fmt.Errorf("unknown role: %w", ErrInvalidInput)
	ErrInvalidKind      = fmt.Errorf("unknown message type: %w", ErrInvalidInput)
	ErrSelfAction       = fmt.Errorf("cannot target yourself: %w", ErrInvalidInput)
	ErrNotGroupRoom     = fmt.Errorf("only group rooms support pins: %w", ErrInvalidInput)

	ErrInviteExpired   = fmt.Errorf("invite %w", ErrExpired)
	ErrInviteExhausted = fmt.Errorf("invite %w", ErrExhausted)

	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("invalid token: %w", ErrUnauthorized)
)

// Code: короткий машинно-читаемый код корневой ошибки (для meta в ответах и WS error).
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrExhausted):
		return "exhausted"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	default:
		return "internal"
	}
}
