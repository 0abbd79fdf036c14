package security

import (
	"errors"

	"github.com/cwrk-planet/messenger/internal/domain"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

type PasswordPolicy struct {
	Cost           int     // по умолчанию bcrypt.DefaultCost
	MinLength      int     // по умолчанию 6
	MinEntropyBits float64 // 0: без проверки энтропии
}

func (p PasswordPolicy) Check(plain string) error {
	minLen := 6
	if p.MinLength > 0 {
		minLen = p.MinLength
	}
	if len(plain) < minLen {
		return domain.ErrPasswordTooShort
	}
	if p.MinEntropyBits > 0 {
		if err := passwordvalidator.Validate(plain, p.MinEntropyBits); err != nil {
			return domain.ErrWeakPassword
		}
	}
	return nil
}

func HashPassword(plain string, p PasswordPolicy) (string, error) {
	if err := p.Check(plain); err != nil {
		return "", err
	}

	cost := bcrypt.DefaultCost
	if p.Cost > 0 {
		cost = p.Cost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword: несовпадение: ErrInvalidCredentials, прочее: как есть.
func ComparePassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrInvalidCredentials
	}
	return err
}
