package sim

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
)

// fallbackSignature is used when a learner ID contains no digits.
const fallbackSignature = "AAA"

// signatureLength is the number of letters in a learner signature.
const signatureLength = 3

// seededRand returns a deterministic PRNG for the given seed material.
// The domain prefix keeps independent uses (template selection versus
// signature shuffling) from sharing a stream.
func seededRand(domain, seed string) *rand.Rand {
	sum := sha256.Sum256([]byte(domain + "\x00" + seed))
	hi := binary.BigEndian.Uint64(sum[0:8])
	lo := binary.BigEndian.Uint64(sum[8:16])
	return rand.New(rand.NewPCG(hi, lo))
}

// Signature derives the short per-learner tag used to rename entities in a
// personalized scenario. It is stable for a given learner ID: the digits of
// the ID are shuffled with a PRNG seeded from the full ID, the first three
// are taken, and each maps to a letter (0->'A' .. 9->'J'). IDs without
// digits share a fixed fallback tag.
func Signature(learnerID string) string {
	var digits []byte
	for i := 0; i < len(learnerID); i++ {
		if learnerID[i] >= '0' && learnerID[i] <= '9' {
			digits = append(digits, learnerID[i])
		}
	}

	if len(digits) == 0 {
		return fallbackSignature
	}

	r := seededRand("signature", learnerID)
	r.Shuffle(len(digits), func(i, j int) {
		digits[i], digits[j] = digits[j], digits[i]
	})

	n := signatureLength
	if len(digits) < n {
		n = len(digits)
	}

	tag := make([]byte, n)
	for i := 0; i < n; i++ {
		tag[i] = 'A' + (digits[i] - '0')
	}
	return string(tag)
}
