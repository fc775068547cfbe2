package events

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// MaxBodySize bounds webhook payloads before any parsing happens.
const MaxBodySize = 100 * 1024

var (
	// ErrUnauthorized covers every signature failure mode. Missing secret,
	// missing header and mismatch are deliberately indistinguishable.
	ErrUnauthorized = errors.New("webhook signature verification failed")

	ErrPayloadTooLarge = errors.New("webhook payload exceeds size limit")
)

// Verifier authenticates raw webhook bodies. It is the sole entry point for
// provider events; nothing downstream trusts a body that did not pass Verify.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the size ceiling and the hex-encoded HMAC-SHA256 signature of
// the raw body.
func (v *Verifier) Verify(body []byte, signature string) error {
	if len(body) > MaxBodySize {
		return ErrPayloadTooLarge
	}
	if len(v.secret) == 0 || signature == "" {
		return ErrUnauthorized
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrUnauthorized
	}
	return nil
}
