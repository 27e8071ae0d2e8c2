package services

import (
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"
)

// GenerateTOTPSecret creates a new TOTP key for username and returns the
// base32 secret and the otpauth:// URL for authenticator apps.
func GenerateTOTPSecret(issuer, username string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: username,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

// ValidateTOTP checks code against secret at time t, allowing one step of skew.
func ValidateTOTP(code, secret string, t time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, t, totp.ValidateOpts{
		Period: 30,
		Skew:   1,
		Digits: 6,
	})
	return err == nil && ok
}
