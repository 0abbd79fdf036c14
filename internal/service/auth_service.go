package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cwrk-planet/messenger/internal/cache"
	"github.com/cwrk-planet/messenger/internal/domain"
	"github.com/cwrk-planet/messenger/internal/repository"
	"github.com/cwrk-planet/messenger/internal/security"
)

type AuthResult struct {
	User        *domain.User
	AccessToken string
	ExpiresIn   time.Duration
}

type AuthService struct {
	users      repository.UserRepository
	jwt        *security.TokenSigner
	passPolicy security.PasswordPolicy
	cache      cache.Cache
	now        func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	jwt *security.TokenSigner,
	passPolicy security.PasswordPolicy,
	c cache.Cache,
	now func() time.Time,
) *AuthService {
	if c == nil {
		c = cache.Nop{}
	}

	return &AuthService{
		users:      users,
		jwt:        jwt,
		passPolicy: passPolicy,
		cache:      c,
		now:        orNow(now),
	}
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	username = domain.NormalizeUsername(username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(password, s.passPolicy)
	if err != nil {
		if domain.Code(err) == "internal" {
			slog.Error("auth.register.hashPassword failed", slog.Any("err", err))
		}
		return nil, err
	}

	u, err := domain.NewUser(username, hash, s.now())
	if err != nil {
		return nil, err
	}

	if _, err := s.users.Create(ctx, u); err != nil {
		return nil, wrap("auth.register.createUser", err)
	}

	return s.issue(u)
}

// Login аутентифицирует по имени+пароль и выпускает access-токен
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	u, err := s.users.GetByUsername(ctx, domain.NormalizeUsername(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, wrap("auth.login.getByUsername", err)
	}

	if err := security.ComparePassword(u.PasswordHash, password); err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			slog.Error("auth.login.comparePassword failed", slog.Any("err", err))
		}
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(u)
}

// Authenticate проверяет токен и подгружает пользователя: имя в токене могло устареть.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.UserSummary, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return domain.UserSummary{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return domain.UserSummary{}, err
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UserSummary{}, domain.ErrInvalidToken
		}
		return domain.UserSummary{}, wrap("auth.authenticate.getByID", err)
	}
	return u.Summary(), nil
}

// Me возвращает профиль пользователя
func (s *AuthService) Me(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, wrap("auth.me.getUserByID", err)
	}
	return u, nil
}

// ChangeUsername выдаёт новый токен: в старом зашито прежнее имя.
func (s *AuthService) ChangeUsername(ctx context.Context, userID domain.UserID, username string) (*AuthResult, error) {
	username = domain.NormalizeUsername(username)
	if err := domain.ValidateUsername(username); err != nil {
		return nil, err
	}

	if err := s.users.UpdateUsername(ctx, userID, username); err != nil {
		return nil, wrap("auth.changeUsername.update", err)
	}
	s.dropProfile(ctx, userID)

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, wrap("auth.changeUsername.getByID", err)
	}
	return s.issue(u)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID domain.UserID, oldPassword, newPassword string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return wrap("auth.changePassword.getByID", err)
	}
	if err := security.ComparePassword(u.PasswordHash, oldPassword); err != nil {
		return domain.ErrInvalidCredentials
	}

	hash, err := security.HashPassword(newPassword, s.passPolicy)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return wrap("auth.changePassword.update", err)
	}
	return nil
}

func (s *AuthService) AccessTTL() time.Duration { return s.jwt.TTL() }

func (s *AuthService) issue(u *domain.User) (*AuthResult, error) {
	access, err := s.jwt.Sign(u.ID, u.Username)
	if err != nil {
		slog.Error("auth.issue.sign failed", slog.Any("err", err))
		return nil, err
	}
	return &AuthResult{User: u, AccessToken: access, ExpiresIn: s.jwt.TTL()}, nil
}

func (s *AuthService) dropProfile(ctx context.Context, id domain.UserID) {
	if err := s.cache.Delete(ctx, cache.ProfileKey(int64(id))); err != nil {
		slog.Warn("cache.drop failed", slog.Int64("user_id", int64(id)), slog.Any("err", err))
	}
}
