package avatar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGravatarURL(t *testing.T) {
	t.Parallel()

	g := NewGravatar(250)

	url, err := g.URL("Deadpool@Example.com ")
	require.NoError(t, err)
	// Hash of the normalized (trimmed, lowercased) address.
	require.Equal(t, "https://www.gravatar.com/avatar/79497276207495cf61382900b08055c9?s=250&d=identicon", url)
}

func TestGravatarURL_InvalidEmail(t *testing.T) {
	t.Parallel()

	g := NewGravatar(0)

	_, err := g.URL("")
	require.Error(t, err)

	_, err = g.URL("not-an-email")
	require.Error(t, err)
}
