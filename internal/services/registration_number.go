package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

var numberSpace = big.NewInt(1_000_000)

// NumberGenerator returns a candidate registration number for the given
// instant. Candidates may collide; the caller checks uniqueness.
type NumberGenerator func(now time.Time) (string, error)

// RandomNumberGenerator yields "<prefix>-<year>-<6 digits>".
func RandomNumberGenerator(prefix string) NumberGenerator {
	return func(now time.Time) (string, error) {
		n, err := rand.Int(rand.Reader, numberSpace)
		if err != nil {
			return "", fmt.Errorf("failed to generate registration number: %w", err)
		}
		return fmt.Sprintf("%s-%d-%06d", prefix, now.Year(), n.Int64()), nil
	}
}
