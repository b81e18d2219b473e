// Package credential seals secret configuration values, such as the Redis
// password, before they are written to config.yaml. Values are sealed with
// AES-256-GCM under a key bound to the local user and genie home directory,
// so a copied config file does not carry a usable password.
package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"os/user"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
)

// SealedPrefix marks a sealed value in the config file.
const SealedPrefix = "sealed:v1:"

var (
	ErrOpenFailed   = errors.New("sealed value does not match this machine")
	ErrMalformed    = errors.New("malformed sealed value")
	ErrKeySize      = errors.New("sealing key must be 32 bytes")
	secretKeySuffix = []string{".password", ".token", ".secret"}
)

// Sealer seals and opens config values.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer returns a Sealer keyed for the current user and genie home.
func NewSealer(home string) (*Sealer, error) {
	return NewSealerWithKey(localKey(home))
}

// NewSealerWithKey uses a caller-supplied 32-byte key.
func NewSealerWithKey(key []byte) (*Sealer, error) {
	if len(key) != 32 {
		return nil, errors.Wrapf(ErrKeySize, "got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "gcm")
	}
	return &Sealer{aead: aead}, nil
}

// Seal returns value in sealed form. Empty and already sealed values are
// returned unchanged.
func (s *Sealer) Seal(value string) (string, error) {
	if value == "" || IsSealed(value) {
		return value, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "nonce")
	}
	box := s.aead.Seal(nonce, nonce, []byte(value), nil)
	return SealedPrefix + base64.RawURLEncoding.EncodeToString(box), nil
}

// Open reverses Seal. Values without the sealed prefix were written by hand
// and pass through.
func (s *Sealer) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	box, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(value, SealedPrefix))
	if err != nil {
		return "", errors.Wrap(ErrMalformed, err.Error())
	}
	n := s.aead.NonceSize()
	if len(box) < n+s.aead.Overhead() {
		return "", ErrMalformed
	}
	plain, err := s.aead.Open(nil, box[:n], box[n:], nil)
	if err != nil {
		return "", errors.WithHint(ErrOpenFailed, "set the value again with: genie config set <key> <value>")
	}
	return string(plain), nil
}

// IsSealed reports whether value carries the sealed prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SealedPrefix)
}

// IsSecretKey reports whether a config key holds a secret.
func IsSecretKey(key string) bool {
	key = strings.ToLower(key)
	for _, suffix := range secretKeySuffix {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// Mask hides all but the ends of a secret for display.
func Mask(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func localKey(home string) []byte {
	h := sha256.New()
	hostname, _ := os.Hostname()
	fmt.Fprintf(h, "genie/config/v1\x00%s\x00%s\x00%s/%s", hostname, home, runtime.GOOS, runtime.GOARCH)
	if u, err := user.Current(); err == nil {
		fmt.Fprintf(h, "\x00%s\x00%s", u.Uid, u.Username)
	}
	return h.Sum(nil)
}
