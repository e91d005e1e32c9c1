package middleware

import (
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SyncKeyHeader carries the scheduler key on sync requests.
const SyncKeyHeader = "X-Sync-Key"

// validSyncKey compares key with the bcrypt hash in SYNC_SERVICE_KEY_HASH.
// An unset hash disables key authentication.
func validSyncKey(key string) bool {
	hash := strings.TrimSpace(os.Getenv("SYNC_SERVICE_KEY_HASH"))
	if hash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
