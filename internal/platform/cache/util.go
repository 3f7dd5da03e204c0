package cache

import (
	"strconv"
	"time"
)

// DefaultUserTTL is how long a user entry stays cached.
const DefaultUserTTL = 10 * time.Minute

const userKeyPrefix = "user:"

// UserKey returns the cache key for the user with the given id.
func UserKey(id uint) string {
	return userKeyPrefix + strconv.FormatUint(uint64(id), 10)
}
