package app

import (
	"fmt"
	"strings"
	"time"

	"tgmarkup/internal/config"
	"tgmarkup/internal/storage"
	telegram "tgmarkup/internal/transport/telegram/adapter"
	"tgmarkup/pkg/botapi"
	logx "tgmarkup/pkg/logx"
)

// logConfig maps the logging section. The chat sink targets the first owner.
func logConfig(cfg *config.Config) logx.Config {
	lc := logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Chat: logx.ChatConfig{
			Enabled:    cfg.Logging.Chat.Enabled,
			MinLevel:   cfg.Logging.Chat.MinLevel,
			RatePerSec: cfg.Logging.Chat.RatePerSec,
		},
	}
	if len(cfg.Telegram.OwnerUserIDs) > 0 {
		lc.Chat.ChatID = cfg.Telegram.OwnerUserIDs[0]
	}
	return lc
}

func adapterConfig(cfg *config.Config) (telegram.Config, error) {
	poll, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return telegram.Config{}, err
	}
	return telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: poll,
		RatePerSec:  cfg.Telegram.RatePerSec,
	}, nil
}

// storageConfig maps the storage section; enabled is false when there is
// nothing to open.
func storageConfig(cfg *config.Config) (sc storage.Config, enabled bool, err error) {
	if cfg == nil || cfg.Storage == nil {
		return storage.Config{}, false, nil
	}
	s := cfg.Storage
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	switch driver {
	case "", "none":
		return storage.Config{}, false, nil
	case "sqlite", "sqlite3":
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", s.Driver)
	}
	path := strings.TrimSpace(s.Path)
	if path == "" {
		return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=%s", driver)
	}
	busy, err := config.ParseDurationOrDefault("storage.busy_timeout", s.BusyTimeout, time.Second)
	if err != nil {
		return storage.Config{}, false, err
	}
	ttl, err := config.ParseDurationOrDefault("storage.peer_ttl", s.PeerTTL, 0)
	if err != nil {
		return storage.Config{}, false, err
	}
	return storage.Config{Driver: driver, Path: path, BusyTimeout: busy, TTL: ttl}, true, nil
}

// OpenStore opens the configured peer store. It returns (nil, nil) when
// storage is off.
func OpenStore(cfg *config.Config, log logx.Logger) (*storage.Store, error) {
	sc, enabled, err := storageConfig(cfg)
	if err != nil || !enabled {
		return nil, err
	}
	store, err := storage.Open(sc, log)
	if err != nil {
		return nil, err
	}
	log.Info("storage enabled", logx.String("driver", sc.Driver), logx.Duration("peer_ttl", sc.TTL))
	return store, nil
}

func pruneSchedule(cfg *config.Config) string {
	if cfg == nil || cfg.Storage == nil || strings.TrimSpace(cfg.Storage.PruneSchedule) == "" {
		return defaultPruneSchedule
	}
	return strings.TrimSpace(cfg.Storage.PruneSchedule)
}

// usernameChain asks each source in turn.
type usernameChain []botapi.UsernameSource

func (c usernameChain) Username(id int64) (string, bool) {
	for _, src := range c {
		if src == nil {
			continue
		}
		if name, ok := src.Username(id); ok {
			return name, true
		}
	}
	return "", false
}
