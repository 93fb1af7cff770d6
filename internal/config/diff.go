package config

import (
	"reflect"
	"slices"
	"strings"

	logx "tgmarkup/pkg/logx"
)

// SummarizeConfigChange returns the changed sections, log fields describing
// them (never the token) and the names of keyboards that were added,
// removed or edited.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field, []string) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	var (
		changed []string
		attrs   []logx.Field
	)

	ot, nt := oldCfg.Telegram, newCfg.Telegram
	if strings.TrimSpace(ot.PollTimeout) != strings.TrimSpace(nt.PollTimeout) ||
		ot.RatePerSec != nt.RatePerSec ||
		!slices.Equal(ot.OwnerUserIDs, nt.OwnerUserIDs) ||
		ot.Token != nt.Token {
		changed = append(changed, "telegram")
		attrs = append(attrs,
			logx.String("telegram.poll_timeout", strings.TrimSpace(nt.PollTimeout)),
			logx.Int("telegram.rate_per_sec", nt.RatePerSec),
			logx.Int("telegram.owner_count", len(nt.OwnerUserIDs)),
			logx.Bool("telegram.token_changed", ot.Token != nt.Token),
		)
	}

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file", newCfg.Logging.File.Enabled),
			logx.Bool("logging.chat", newCfg.Logging.Chat.Enabled),
		)
	}

	var ost, nst StorageConfig
	if oldCfg.Storage != nil {
		ost = *oldCfg.Storage
	}
	if newCfg.Storage != nil {
		nst = *newCfg.Storage
	}
	if ost != nst {
		changed = append(changed, "storage")
		attrs = append(attrs,
			logx.String("storage.driver", nst.Driver),
			logx.String("storage.peer_ttl", nst.PeerTTL),
			logx.String("storage.prune_schedule", nst.PruneSchedule),
		)
	}

	if !slices.Equal(oldCfg.Peers, newCfg.Peers) {
		changed = append(changed, "peers")
		attrs = append(attrs, logx.Int("peers.count", len(newCfg.Peers)))
	}

	kbs := diffKeyboards(oldCfg.Keyboards, newCfg.Keyboards)
	if len(kbs) > 0 {
		changed = append(changed, "keyboards")
		attrs = append(attrs,
			logx.Int("keyboards.changed_count", len(kbs)),
			logx.Int("keyboards.count", len(newCfg.Keyboards)),
		)
	}

	slices.Sort(changed)
	return changed, attrs, kbs
}

func diffKeyboards(oldM, newM map[string]KeyboardConfig) []string {
	var out []string
	for name, o := range oldM {
		n, ok := newM[name]
		if !ok || !reflect.DeepEqual(o, n) {
			out = append(out, name)
		}
	}
	for name := range newM {
		if _, ok := oldM[name]; !ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
