package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mathRand "math/rand"
	"time"

	"github.com/google/uuid"
)

// IDGenerator provides centralized ID generation functionality
type IDGenerator struct {
	random *mathRand.Rand
}

// NewIDGenerator creates a new ID generator
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{
		// #nosec G404 - math/rand is the fallback for non-security-critical IDs
		random: mathRand.New(mathRand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateRequestID generates a unique request ID (16 hex characters)
func (g *IDGenerator) GenerateRequestID() string {
	return g.generateHex(8)
}

// GenerateCorrelationID generates a UUID for correlation tracking
func (g *IDGenerator) GenerateCorrelationID() string {
	return uuid.New().String()
}

// GenerateDispatchID generates an ID identifying one dispatch submission
func (g *IDGenerator) GenerateDispatchID() string {
	return fmt.Sprintf("disp_%s", g.generateHex(12))
}

// generateHex generates a random hex string of specified byte length
func (g *IDGenerator) generateHex(byteLength int) string {
	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to math/rand if crypto/rand fails
		for i := range bytes {
			bytes[i] = byte(g.random.Intn(256))
		}
	}
	return hex.EncodeToString(bytes)
}

// Global ID generator instance
var globalIDGenerator = NewIDGenerator()

// GenerateRequestID generates a unique request ID using the global generator
func GenerateRequestID() string {
	return globalIDGenerator.GenerateRequestID()
}

// GenerateCorrelationID generates a correlation ID using the global generator
func GenerateCorrelationID() string {
	return globalIDGenerator.GenerateCorrelationID()
}

// GenerateDispatchID generates a dispatch ID using the global generator
func GenerateDispatchID() string {
	return globalIDGenerator.GenerateDispatchID()
}
