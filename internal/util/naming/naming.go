package naming

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultPrefix and DefaultSuffixLength match the names operators already
// know from the provider portal.
const (
	DefaultPrefix       = "surftest"
	DefaultSuffixLength = 5
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Workspace returns prefix + "-" + length random lowercase alphanumerics.
func Workspace(prefix string, length int) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("workspace name prefix cannot be empty")
	}
	suffix, err := RandomSuffix(length)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", prefix, suffix), nil
}

// RandomSuffix returns n characters drawn uniformly from [a-z0-9].
func RandomSuffix(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("suffix length must be positive, got %d", n)
	}
	limit := big.NewInt(int64(len(suffixAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random suffix: %w", err)
		}
		buf[i] = suffixAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

// InventoryGroup returns the inventory group header for a group name.
func InventoryGroup(group string) string {
	return fmt.Sprintf("[%s]", group)
}
