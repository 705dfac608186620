package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderNumber returns a human-facing order number like ORD-261019-048213.
// Uniqueness is enforced by the database; callers retry on collision.
func GenerateOrderNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 1_000_000)
	}

	return fmt.Sprintf("ORD-%s-%06d", now.UTC().Format("060102"), n.Int64())
}
