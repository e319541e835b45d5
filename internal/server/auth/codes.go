package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// GenerateActivationToken returns a random opaque token valid for ttl from now.
func GenerateActivationToken(now time.Time, ttl time.Duration) (string, time.Time) {
	return uuid.NewString(), now.Add(ttl)
}

var codeSpan = big.NewInt(900000)

// GenerateSixDigitCode returns a uniformly random code in 100000..999999.
func GenerateSixDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
