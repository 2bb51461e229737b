package cache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserKey(t *testing.T) {
	t.Parallel()

	require.Equal(t, "user:username:deadpool", UserKey("deadpool"))
}
