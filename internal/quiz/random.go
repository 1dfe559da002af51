package quiz

import (
	"crypto/rand"
	"math/big"
	mathrand "math/rand/v2"

	util "github.com/CodeAndHammer/slovicka/internal/util"
)

// RandomSource yields uniform integers in [0, n). *math/rand/v2.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type cryptoSource struct{}

func (cryptoSource) IntN(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		util.LogWarn("Error generating random number: %v, using fallback", err)
		return mathrand.IntN(n)
	}
	return int(v.Int64())
}

// shuffle is an in-place Fisher-Yates shuffle.
func shuffle(words []string, rng RandomSource) {
	for i := len(words) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		words[i], words[j] = words[j], words[i]
	}
}
