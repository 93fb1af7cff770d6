package config

// Config is the on-disk configuration (JSON, or YAML coerced to JSON).
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Storage is optional; nil disables the peer cache.
	Storage *StorageConfig `json:"storage,omitempty"`

	// Peers pins users that keyboards reference by username or id.
	Peers []PeerConfig `json:"peers,omitempty"`

	Keyboards map[string]KeyboardConfig `json:"keyboards"`
}

type TelegramConfig struct {
	Token        string  `json:"token"`
	OwnerUserIDs []int64 `json:"owner_user_ids"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
	// RatePerSec caps outgoing API calls. 0 means the default (20).
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
	Chat    LoggingChat `json:"chat"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoggingChat forwards warnings to the first owner.
type LoggingChat struct {
	Enabled    bool   `json:"enabled"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig controls the peer cache.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/peers.db", "peer_ttl": "720h" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"`
	// PeerTTL is a Go duration string; empty keeps peers forever.
	PeerTTL string `json:"peer_ttl,omitempty"`
	// PruneSchedule is a cron spec (robfig/cron, with descriptors). Default "@hourly".
	PruneSchedule string `json:"prune_schedule,omitempty"`
}

type PeerConfig struct {
	ID         int64  `json:"id"`
	AccessHash int64  `json:"access_hash"`
	Username   string `json:"username,omitempty"`
}

// KeyboardConfig is either a layout (Rows) or a single directive
// (Clear or ForceReply).
type KeyboardConfig struct {
	InlineOnly bool             `json:"inline_only,omitempty"`
	Rows       [][]ButtonConfig `json:"rows,omitempty"`

	Clear      *ClearConfig      `json:"clear,omitempty"`
	ForceReply *ForceReplyConfig `json:"force_reply,omitempty"`
}

type ClearConfig struct {
	Selective bool `json:"selective"`
}

type ForceReplyConfig struct {
	SingleUse   bool   `json:"single_use"`
	Selective   bool   `json:"selective"`
	Placeholder string `json:"placeholder,omitempty"`
}

// ButtonConfig describes one button. Which fields apply depends on Type.
type ButtonConfig struct {
	Type string `json:"type"`
	Text string `json:"text"`

	Data     string `json:"data,omitempty"`      // callback
	Query    string `json:"query,omitempty"`     // switch_inline
	SamePeer bool   `json:"same_peer,omitempty"` // switch_inline
	URL      string `json:"url,omitempty"`       // url, auth

	Bot         string `json:"bot,omitempty"`          // auth: "me", "@name" or id
	WriteAccess bool   `json:"write_access,omitempty"` // auth
	FwdText     string `json:"fwd_text,omitempty"`     // auth
	User        string `json:"user,omitempty"`         // mention

	Quiz bool `json:"quiz,omitempty"` // poll

	// Keyboard-wide hints; nil leaves the hint unset.
	Resize    *bool `json:"resize,omitempty"`
	SingleUse *bool `json:"single_use,omitempty"`
	Selective *bool `json:"selective,omitempty"`
}

// ButtonTypes lists the accepted ButtonConfig.Type values.
var ButtonTypes = []string{
	"callback", "switch_inline", "url", "auth", "mention",
	"text", "location", "phone", "poll", "buy", "game",
}

// KeyboardButtonTypes are the types that may carry keyboard hints.
var KeyboardButtonTypes = []string{"text", "location", "phone", "poll"}
