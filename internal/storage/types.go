package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage: disabled")

// Config configures storage.
//
// Driver is "sqlite" (alias "sqlite3"). Empty or "none" disables storage.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // 0 means driver default
	TTL         time.Duration // 0 keeps peers forever
}
