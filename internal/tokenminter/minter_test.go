package tokenminter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stemsi/examcore/internal/tokenminter"
)

func TestMintMeetsLengthFloor(t *testing.T) {
	m := tokenminter.New()
	tok, err := m.Mint()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(tok), 43)
}

func TestMintIsUnpredictable(t *testing.T) {
	m := tokenminter.New()
	seen := make(map[string]bool, 256)
	for i := 0; i < 256; i++ {
		tok, err := m.Mint()
		require.NoError(t, err)
		require.False(t, seen[tok], "Mint produced a duplicate token")
		seen[tok] = true
	}
}

func TestMintIsURLSafe(t *testing.T) {
	m := tokenminter.New()
	tok, err := m.Mint()
	require.NoError(t, err)
	for _, r := range tok {
		if r == '/' || r == '+' || r == '=' {
			t.Fatalf("token contains non-URL-safe character %q: %s", r, tok)
		}
	}
}
