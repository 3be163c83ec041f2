package services

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
)

// OwnerSubject is the token subject of the single owner of the tracker set.
const OwnerSubject = "owner"

const MinPasscodeLen = 8

// AuthService exchanges the owner passcode for a bearer token.
type AuthService struct {
	passcodeHash []byte
	tokens       *TokenService
}

func NewAuthService(passcodeHash string, tokens *TokenService) *AuthService {
	return &AuthService{
		passcodeHash: []byte(passcodeHash),
		tokens:       tokens,
	}
}

func (s *AuthService) Login(passcode string) (string, error) {
	if len(s.passcodeHash) == 0 {
		return "", domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(s.passcodeHash, []byte(passcode)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("auth service: malformed passcode hash: %w", err)
	}

	return s.tokens.GenerateToken(OwnerSubject)
}

func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// HashPasscode produces the value expected in the passcode hash setting.
func HashPasscode(passcode string) (string, error) {
	if utf8.RuneCountInString(passcode) < MinPasscodeLen {
		return "", domain.ErrPasscodeTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
