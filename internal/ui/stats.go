package ui

import "sync/atomic"

// Stats counts deliveries across the bot's lifetime.
type Stats struct {
	TotalChapters atomic.Int64
	TotalImages   atomic.Int64
	TotalBytes    atomic.Int64
}
