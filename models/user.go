package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleUser      = "user"
	RoleGuide     = "guide"
	RoleLeadGuide = "lead-guide"
	RoleAdmin     = "admin"
)

type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email                string             `bson:"email" json:"email" validate:"required,email"`
	Name                 string             `bson:"name" json:"name" validate:"required"`
	Photo                string             `bson:"photo,omitempty" json:"photo,omitempty"`
	Password             string             `bson:"password" json:"-" validate:"required,min=8"`
	Role                 string             `bson:"role" json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
	Active               bool               `bson:"active" json:"-"`
	PasswordChangedAt    time.Time          `bson:"password_changed_at,omitempty" json:"-"`
	PasswordResetToken   string             `bson:"password_reset_token,omitempty" json:"-"`
	PasswordResetExpires time.Time          `bson:"password_reset_expires,omitempty" json:"-"`
	CreatedAt            time.Time          `bson:"created_at" json:"-"`
}

// SetPassword stores a bcrypt hash of the plain text password.
func (u *User) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}

// HasChangedPasswordAfter reports whether the password was changed after the
// given token issue time. Tokens issued before a change are rejected.
func (u *User) HasChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.After(issuedAt)
}

// NewPasswordResetToken generates a single-use reset token, stores its hash
// with a 10 minute expiry and returns the plain token for the reset link.
func (u *User) NewPasswordResetToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	token := hex.EncodeToString(raw)
	u.PasswordResetToken = HashResetToken(token)
	u.PasswordResetExpires = time.Now().Add(10 * time.Minute)

	return token, nil
}

// HashResetToken maps the plain reset token to its stored form.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
