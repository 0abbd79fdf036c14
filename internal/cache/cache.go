package cache

import (
	"context"
	"time"
)

// Cache: JSON-кеш поверх key/value. Промах не ошибка: ok=false.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern удаляет ключи по glob-шаблону redis (SCAN + DEL)
	DeletePattern(ctx context.Context, pattern string) error
	Close() error
}

// Nop используется, когда redis не настроен: всегда промах.
type Nop struct{}

func (Nop) GetJSON(context.Context, string, any) (bool, error) { return false, nil }
func (Nop) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (Nop) Delete(context.Context, ...string) error { return nil }
func (Nop) DeletePattern(context.Context, string) error { return nil }
func (Nop) Close() error { return nil }
