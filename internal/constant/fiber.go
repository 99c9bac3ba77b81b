package constant

const (
	ContextKeyRequestID = "requestid"

	RequestIDHeader = "X-Tile-Request-ID"

	IdempotencyHeader    = "X-Tile-Idempotency"
	IdempotencyKeyHeader = "X-Tile-Idempotency-Key"

	IdempotencyKeyLocalsKey   = "idempotency-key"
	IdempotencyKeyLengthLimit = 128

	CacheStatusHeader = "X-Tile-Cache"
)
