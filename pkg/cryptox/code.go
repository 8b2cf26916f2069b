package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Activation code bounds, both inclusive.
const (
	MinActivationCode = 1000
	MaxActivationCode = 9999
)

// GenerateActivationCode returns a uniformly distributed 4-digit code in
// [MinActivationCode, MaxActivationCode] drawn from crypto/rand.
func GenerateActivationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(MaxActivationCode-MinActivationCode+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate activation code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+MinActivationCode), nil
}
