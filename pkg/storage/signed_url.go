package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner mints and verifies self-contained download tokens so that
// export files can be fetched without an Authorization header. A token binds
// a job id and a relative file path to an expiry timestamp with an
// HMAC-SHA256 signature.
//
// Token layout: <jobID>.<unixExpiry>.<base64url(path)>.<hexSignature>
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// SignedToken is the decoded form of a verified token.
type SignedToken struct {
	JobID     string
	Path      string
	ExpiresAt time.Time
}

// NewSignedURLSigner builds a signer. TTL defaults to 24 hours.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate signs a token for the given job and file path.
func (s *SignedURLSigner) Generate(jobID, path string) (string, error) {
	if jobID == "" || path == "" {
		return "", fmt.Errorf("job id and path are required")
	}
	expiry := time.Now().Add(s.ttl).Unix()
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(path))
	payload := fmt.Sprintf("%s.%d.%s", jobID, expiry, encodedPath)
	return payload + "." + s.sign(payload), nil
}

// Parse verifies the signature and expiry and returns the decoded token.
func (s *SignedURLSigner) Parse(token string) (*SignedToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return nil, fmt.Errorf("malformed token")
	}
	payload := strings.Join(parts[:3], ".")
	if subtle.ConstantTimeCompare([]byte(s.sign(payload)), []byte(parts[3])) != 1 {
		return nil, fmt.Errorf("invalid token signature")
	}

	expiry, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed token expiry")
	}
	if time.Now().Unix() > expiry {
		return nil, fmt.Errorf("token expired")
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("malformed token path")
	}

	return &SignedToken{
		JobID:     parts[0],
		Path:      string(rawPath),
		ExpiresAt: time.Unix(expiry, 0),
	}, nil
}

func (s *SignedURLSigner) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
