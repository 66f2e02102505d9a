package system

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateSessionID returns 16 hex characters used to tag the logs of one run.
func GenerateSessionID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
