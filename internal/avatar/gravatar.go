package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// Lookup resolves a default avatar URL for a new account. Best effort:
// registration swallows any error and leaves the avatar unset.
type Lookup interface {
	URL(email string) (string, error)
}

// Gravatar derives avatar URLs from email hashes.
type Gravatar struct {
	size int
}

// NewGravatar constructs a lookup producing images of the given pixel size.
func NewGravatar(size int) *Gravatar {
	if size <= 0 {
		size = 250
	}
	return &Gravatar{size: size}
}

// URL builds the gravatar image URL for the email, falling back to a
// generated identicon when no image is registered.
func (g *Gravatar) URL(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" || !strings.Contains(normalized, "@") {
		return "", fmt.Errorf("invalid email %q", email)
	}
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=identicon", hex.EncodeToString(sum[:]), g.size), nil
}
