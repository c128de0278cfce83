package redis

import (
	"fmt"

	"github.com/mcoot/signedchess/internal/model"
)

// Key prefix for all session data
const keyPrefix = "signedchess"

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}
