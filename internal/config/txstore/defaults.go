package txstore

import "time"

const (
	defaultBackend   = BackendMemory
	defaultRedisAddr = "127.0.0.1:6379"
	defaultRedisDB   = 0
	defaultKeyPrefix = "recordjoin:tx:"
	defaultTTL       = 24 * time.Hour
)
