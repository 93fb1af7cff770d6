package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate checks what can be checked without a resolver: durations, button
// types and keyboard shapes. Building the keyboards is left to the catalog.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}
	var errs []error
	if _, err := ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		errs = append(errs, err)
	}
	if cfg.Telegram.RatePerSec < 0 {
		errs = append(errs, errors.New("telegram.rate_per_sec: must be >= 0"))
	}
	if s := cfg.Storage; s != nil {
		if _, err := ParseDurationField("storage.busy_timeout", s.BusyTimeout); err != nil {
			errs = append(errs, err)
		}
		if _, err := ParseDurationField("storage.peer_ttl", s.PeerTTL); err != nil {
			errs = append(errs, err)
		}
	}
	for i, p := range cfg.Peers {
		if p.ID <= 0 {
			errs = append(errs, fmt.Errorf("peers[%d]: id must be > 0", i))
		}
	}
	for _, name := range KeyboardNames(cfg) {
		errs = append(errs, validateKeyboard(name, cfg.Keyboards[name])...)
	}
	return errors.Join(errs...)
}

func validateKeyboard(name string, kb KeyboardConfig) []error {
	path := "keyboards." + name
	shapes := 0
	if len(kb.Rows) > 0 {
		shapes++
	}
	if kb.Clear != nil {
		shapes++
	}
	if kb.ForceReply != nil {
		shapes++
	}
	if shapes != 1 {
		return []error{fmt.Errorf("%s: exactly one of rows, clear, force_reply is required", path)}
	}

	var errs []error
	for i, row := range kb.Rows {
		for j, b := range row {
			t := strings.ToLower(strings.TrimSpace(b.Type))
			if !slices.Contains(ButtonTypes, t) {
				errs = append(errs, fmt.Errorf("%s.rows[%d][%d]: unknown button type %q", path, i, j, b.Type))
				continue
			}
			if !slices.Contains(KeyboardButtonTypes, t) && (b.Resize != nil || b.SingleUse != nil || b.Selective != nil) {
				errs = append(errs, fmt.Errorf("%s.rows[%d][%d]: resize, single_use and selective apply to keyboard buttons only, not %q", path, i, j, t))
			}
		}
	}
	return errs
}

// KeyboardNames returns the keyboard names in sorted order.
func KeyboardNames(cfg *Config) []string {
	if cfg == nil {
		return nil
	}
	names := make([]string, 0, len(cfg.Keyboards))
	for name := range cfg.Keyboards {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
