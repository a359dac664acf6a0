package state

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenFileName = "token"

// ErrNoToken is returned when no usable cached token exists.
var ErrNoToken = errors.New("no cached token")

// TokenPath returns the location of the cached access token.
func TokenPath() string {
	return filepath.Join(Dir(), tokenFileName)
}

// SaveToken caches an access token readable only by the current user.
func SaveToken(token string) error {
	if err := os.MkdirAll(Dir(), 0755); err != nil {
		return err
	}
	return os.WriteFile(TokenPath(), []byte(strings.TrimSpace(token)+"\n"), 0600)
}

// LoadToken returns the cached token. A token whose exp claim has passed is
// reported as ErrNoToken. Tokens that are not JWTs are returned as-is.
func LoadToken(now time.Time) (string, error) {
	data, err := os.ReadFile(TokenPath())
	if os.IsNotExist(err) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	if TokenExpired(token, now) {
		return "", ErrNoToken
	}
	return token, nil
}

// DeleteToken removes the cached token, if any.
func DeleteToken() error {
	err := os.Remove(TokenPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// TokenExpired reports whether token is a JWT with an exp claim before now.
// The signature is not verified; only the backend can do that.
func TokenExpired(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
