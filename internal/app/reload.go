package app

import (
	"context"
	"slices"
	"strings"

	"tgmarkup/internal/catalog"
	"tgmarkup/internal/config"
	logx "tgmarkup/pkg/logx"
)

func (a *App) reloadLoop(ctx context.Context, sub <-chan *config.Config) {
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: only the newest config matters.
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						cfg = newer
					}
				default:
					break drain
				}
			}
			if cfg == nil {
				continue
			}
			a.apply(ctx, last, cfg)
			last = cfg
		}
	}
}

// apply pushes a validated config into the running components. Storage
// changes need a restart.
func (a *App) apply(ctx context.Context, prev, cfg *config.Config) {
	sections, attrs, changedKbs := config.SummarizeConfigChange(prev, cfg)
	if len(sections) == 0 {
		a.log.Info("config reloaded (no changes)")
		return
	}
	a.log.Debug("config change summary", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)

	if slices.Contains(sections, "storage") {
		a.log.Warn("storage config changed; restart required for changes to take effect")
	}
	if slices.Contains(sections, "telegram") && prev != nil && prev.Telegram.Token != cfg.Telegram.Token {
		a.log.Warn("telegram token changed; restart required for changes to take effect")
	}

	a.logs.Apply(logConfig(cfg))
	a.handler.SetOwners(cfg.Telegram.OwnerUserIDs)
	a.adapter.SetRate(cfg.Telegram.RatePerSec)

	if len(changedKbs) > 0 || slices.Contains(sections, "peers") {
		cat, err := catalog.FromConfig(ctx, cfg, a.resolver())
		if err != nil {
			a.log.Warn("catalog rebuild failed; keeping previous", logx.Err(err))
		} else {
			a.handler.SetCatalog(cat)
			a.adapter.SetUsernames(a.usernames(cfg))
			a.log.Info("catalog reloaded", logx.Int("keyboards", cat.Len()), logx.Strings("changed", changedKbs))
		}
	}

	a.log.Info("config reloaded", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)
}
