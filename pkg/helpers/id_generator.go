package helpers

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// IDGenerator generates various types of IDs
type IDGenerator struct {
	rand *rand.Rand
}

// NewIDGenerator creates a new ID generator
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateUUID generates a UUID v4
func (g *IDGenerator) GenerateUUID() string {
	return uuid.New().String()
}

// GenerateTransactionID generates a transaction ID (VARCHAR format)
// Format: TRX-YYYYMMDD-XXXXXX (e.g., TRX-20241029-A1B2C3)
func (g *IDGenerator) GenerateTransactionID() string {
	now := time.Now()
	dateStr := now.Format("20060102")

	// Generate 6 character random alphanumeric suffix
	suffix := g.randomAlphanumeric(6)

	return fmt.Sprintf("TRX-%s-%s", dateStr, suffix)
}

// GenerateReferralCode generates a referral code
func (g *IDGenerator) GenerateReferralCode() string {
	return g.randomAlphanumeric(8)
}

// GenerateVerificationToken generates a hex verification token
func (g *IDGenerator) GenerateVerificationToken() string {
	const hexChars = "0123456789abcdef"
	result := make([]byte, 64)
	for i := range result {
		result[i] = hexChars[g.rand.Intn(len(hexChars))]
	}
	return string(result)
}

// randomAlphanumeric generates a random alphanumeric string
func (g *IDGenerator) randomAlphanumeric(length int) string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		result[i] = chars[g.rand.Intn(len(chars))]
	}
	return string(result)
}
