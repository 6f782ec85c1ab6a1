package wifiqr

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const (
	securePasswordLength   = 12
	extendedPasswordLength = 16
	temporalValidity       = 30 * 24 * time.Hour

	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*-_"
)

// GenerateSecurePassword returns a random WPA password drawn from letters,
// digits and punctuation. With extended set, the password is 16 characters
// instead of 12.
func GenerateSecurePassword(extended bool) (string, error) {
	length := securePasswordLength
	if extended {
		length = extendedPasswordLength
	}
	return randomString(passwordAlphabet, length)
}

// GenerateTemporalPassword returns a human-readable password that expires
// after thirty days, plus the expiry timestamp. The year-month stamp makes
// stale credentials recognizable at a glance.
func GenerateTemporalPassword() (string, time.Time, error) {
	now := time.Now().UTC()
	digits, err := randomString("0123456789", 4)
	if err != nil {
		return "", time.Time{}, err
	}
	password := fmt.Sprintf("wifi-%s-%s", now.Format("200601"), digits)
	return password, now.Add(temporalValidity), nil
}

func randomString(alphabet string, length int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random password: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
