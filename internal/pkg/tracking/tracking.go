package tracking

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Alphabet excludes visually ambiguous glyphs (0/O, 1/I) so tracking IDs can
// be read back over the phone without confusion.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the number of random characters after the prefix.
const CodeLength = 8

// Exists reports whether a candidate tracking ID is already taken.
type Exists func(ctx context.Context, trackingID string) (bool, error)

// Generator produces unique human-shareable tracking IDs of the form
// PREFIX-XXXXXXXX. Uniqueness is checked against the store with bounded
// retries; when the retry budget is exhausted a timestamp suffix is appended
// to the last candidate so generation always terminates.
type Generator struct {
	prefix     string
	maxRetries int
	exists     Exists
	now        func() time.Time
}

func NewGenerator(prefix string, maxRetries int, exists Exists) *Generator {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Generator{prefix: prefix, maxRetries: maxRetries, exists: exists, now: time.Now}
}

// Generate returns a tracking ID not present in the store at check time.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	var candidate string
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		code, err := randomCode(CodeLength)
		if err != nil {
			return "", err
		}
		candidate = g.prefix + "-" + code
		taken, err := g.exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check tracking id: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	// Retry budget exhausted. A time-based suffix guarantees termination;
	// the storage layer's conditional write remains the final gate.
	return candidate + "-" + g.now().UTC().Format("150405"), nil
}

func randomCode(n int) (string, error) {
	b := make([]byte, n)
	maxIdx := big.NewInt(int64(len(Alphabet)))
	for i := range b {
		idx, err := rand.Int(rand.Reader, maxIdx)
		if err != nil {
			return "", fmt.Errorf("generate tracking code: %w", err)
		}
		b[i] = Alphabet[idx.Int64()]
	}
	return string(b), nil
}
