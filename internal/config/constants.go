package config

import "time"

// Timeouts for one-shot network work.
const (
	RPCSelectTimeout = 10 * time.Second // endpoint benchmark
	ReadTimeout      = 15 * time.Second // one round of contract reads
	SendTimeout      = 30 * time.Second // signing and broadcasting a write
)
