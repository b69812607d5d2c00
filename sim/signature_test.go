package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureStable(t *testing.T) {
	for _, id := range []string{"123456789", "learner-42", "007", "a1b2c3"} {
		first := Signature(id)
		second := Signature(id)
		assert.Equal(t, first, second, "signature for %q must be stable", id)
	}
}

func TestSignatureShape(t *testing.T) {
	sig := Signature("123456789")

	require.Len(t, sig, 3)
	for i := 0; i < len(sig); i++ {
		assert.GreaterOrEqual(t, sig[i], byte('A'))
		assert.LessOrEqual(t, sig[i], byte('J'))
	}
}

func TestSignatureNoDigitsFallback(t *testing.T) {
	assert.Equal(t, fallbackSignature, Signature("anonymous"))
	assert.Equal(t, fallbackSignature, Signature(""))
}

func TestSignatureShortDigitSequences(t *testing.T) {
	// Fewer than three digits: use what exists.
	assert.Len(t, Signature("user-7"), 1)
	assert.Len(t, Signature("user-73"), 2)
	assert.Equal(t, "H", Signature("user-7"))
}

func TestSignatureUsesDigitsOnly(t *testing.T) {
	// Same digits embedded in different text still map into A..J letters
	// derived from those digits.
	sig := Signature("905")
	require.Len(t, sig, 3)
	for i := 0; i < len(sig); i++ {
		assert.Contains(t, []byte{'J', 'A', 'F'}, sig[i])
	}
}
