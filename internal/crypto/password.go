package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch is returned by Compare when the password does not match.
var ErrMismatch = errors.New("password does not match")

// PasswordManager hashes and verifies account passwords.
type PasswordManager interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

// BcryptManager implements PasswordManager with bcrypt.
type BcryptManager struct {
	cost int
}

// NewBcryptManager returns a manager hashing at cost; zero selects
// bcrypt.DefaultCost.
func NewBcryptManager(cost int) *BcryptManager {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptManager{cost: cost}
}

func (m *BcryptManager) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	return string(b), err
}

// Compare checks password against a stored hash in constant time. A wrong
// password yields ErrMismatch; a malformed hash yields the bcrypt error.
func (m *BcryptManager) Compare(hashedPassword, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	return err
}
