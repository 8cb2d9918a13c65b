package constants

import "time"

const (
	CacheKeyUserRole = "scaffold:user:role:%s" // %s -> user id
)

const (
	CacheExpireUserRole = 5 * time.Minute
)
