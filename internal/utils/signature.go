package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const resetSignatureLength = 40

// GenerateSignature creates an HMAC-SHA256 signature of payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// ResetToken returns "<issued base36>-<signature>". The signature covers the
// current password hash, so changing the password invalidates the token.
func ResetToken(userID int, passwordHash string, issued time.Time, secret string) string {
	ts := strconv.FormatInt(issued.Unix(), 36)
	return ts + "-" + resetSignature(userID, passwordHash, ts, secret)
}

// CheckResetToken verifies token for the user and rejects tokens older than timeout.
func CheckResetToken(token string, userID int, passwordHash string, now time.Time, timeout time.Duration, secret string) bool {
	ts, sig, ok := strings.Cut(token, "-")
	if !ok || ts == "" || sig == "" {
		return false
	}
	sec, err := strconv.ParseInt(ts, 36, 64)
	if err != nil {
		return false
	}
	if now.Sub(time.Unix(sec, 0)) > timeout {
		return false
	}
	expected := resetSignature(userID, passwordHash, ts, secret)
	return hmac.Equal([]byte(sig), []byte(expected))
}

func resetSignature(userID int, passwordHash, ts, secret string) string {
	payload := fmt.Sprintf("%d:%s:%s", userID, passwordHash, ts)
	return GenerateSignature([]byte(payload), secret)[:resetSignatureLength]
}

// EncodeUserID encodes a user id for use in a URL path segment.
func EncodeUserID(id int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(id)))
}

// DecodeUserID reverses EncodeUserID.
func DecodeUserID(encoded string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(raw))
}
