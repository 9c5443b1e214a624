package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"municipio/models"
)

// Authenticate verifies credentials against the users table. Disabled users
// can not log in: their registration is still pending or was rejected.
func Authenticate(username, password string) (models.AppUser, error) {
	username = strings.TrimSpace(username)
	var user models.AppUser
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return models.AppUser{}, fmt.Errorf("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.AppUser{}, fmt.Errorf("invalid credentials")
	}
	if !user.Enabled {
		return models.AppUser{}, fmt.Errorf("cuenta pendiente de aprobación")
	}
	return user, nil
}

// validatePassword applies the registry's password policy: 8-20 characters
// with at least one upper, one lower, one digit and one special character,
// no whitespace.
func validatePassword(password string) error {
	if len(password) < 8 || len(password) > 20 {
		return fmt.Errorf("la contraseña debe tener entre 8 y 20 caracteres")
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return fmt.Errorf("la contraseña no puede contener espacios")
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return fmt.Errorf("la contraseña debe contener al menos una mayúscula, una minúscula, un dígito y un caracter especial")
	}
	return nil
}

// createAndStoreRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func createAndStoreRefreshToken(userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	rt := models.RefreshToken{UserID: userID, TokenHash: th, ExpiresAt: time.Now().Add(30 * 24 * time.Hour)}
	if err := db.Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

// findRefreshTokenByRaw looks a refresh token record up by its raw token string.
func findRefreshTokenByRaw(token string) (*models.RefreshToken, error) {
	h := sha256.Sum256([]byte(token))
	th := hex.EncodeToString(h[:])
	var rt models.RefreshToken
	if err := db.Where("token_hash = ?", th).First(&rt).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func roleNameOf(user *models.AppUser) string {
	if user.RoleID == nil {
		return ""
	}
	var r models.Role
	if err := db.First(&r, *user.RoleID).Error; err != nil {
		return ""
	}
	return r.Name
}
