// Package app wires configuration, logging, the peer store, the keyboard
// catalog and the Telegram adapter into a running bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"tgmarkup/internal/catalog"
	"tgmarkup/internal/config"
	"tgmarkup/internal/runtime/supervisor"
	"tgmarkup/internal/storage"
	"tgmarkup/internal/transport"
	telegram "tgmarkup/internal/transport/telegram/adapter"
	logx "tgmarkup/pkg/logx"
	"tgmarkup/pkg/peer"
)

type App struct {
	cfgm *config.ConfigManager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	store   *storage.Store
	adapter *telegram.Adapter
	handler *Handler
	pruner  *pruner

	updates chan transport.Update

	// notify reports service state to systemd; a no-op outside a unit.
	notify func(state string) (bool, error)
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	adCfg, err := adapterConfig(cfg)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(adCfg, logx.NewConsole("INFO").With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logConfig(cfg), ad)
	log = log.With(logx.String("comp", "app"))

	store, err := OpenStore(cfg, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	a := &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		adapter: ad,
		updates: make(chan transport.Update, 256),
		notify:  func(state string) (bool, error) { return daemon.SdNotify(false, state) },
	}
	if err := a.init(context.Background(), cfg); err != nil {
		a.closeStore()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, cfg *config.Config) error {
	cat, err := catalog.FromConfig(ctx, cfg, a.resolver())
	if err != nil {
		return err
	}
	a.handler = NewHandler(a.log.With(logx.String("comp", "handler")), a.adapter, a.recorder())
	a.handler.SetCatalog(cat)
	a.handler.SetOwners(cfg.Telegram.OwnerUserIDs)
	a.adapter.SetUsernames(a.usernames(cfg))

	if a.store != nil {
		p, err := newPruner(a.log.With(logx.String("comp", "prune")), a.store, pruneSchedule(cfg))
		if err != nil {
			return err
		}
		a.pruner = p
	}
	a.log.Info("catalog loaded", logx.Int("keyboards", cat.Len()))
	return nil
}

// resolver returns the store as a peer.Resolver, or nil without storage.
func (a *App) resolver() peer.Resolver {
	if a.store == nil {
		return nil
	}
	return a.store
}

func (a *App) recorder() peerRecorder {
	if a.store == nil {
		return nil
	}
	return a.store
}

func (a *App) usernames(cfg *config.Config) usernameChain {
	users := make([]peer.User, 0, len(cfg.Peers))
	for _, p := range cfg.Peers {
		users = append(users, peer.User{ID: p.ID, AccessHash: p.AccessHash, Username: p.Username})
	}
	chain := usernameChain{peer.NewStatic(users...)}
	if a.store != nil {
		chain = append(chain, a.store)
	}
	return chain
}

// validate rejects reloaded configs whose keyboards do not compile.
func (a *App) validate(ctx context.Context, cfg *config.Config) error {
	if _, _, err := storageConfig(cfg); err != nil {
		return err
	}
	if _, err := ParsePruneSchedule(pruneSchedule(cfg)); err != nil {
		return err
	}
	_, err := catalog.FromConfig(ctx, cfg, a.resolver())
	return err
}

// Done is closed when the app context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(a.validate)

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}
	if err := a.adapter.UpdateMenuCommands(a.sup.Context(), a.handler.Commands()); err != nil {
		a.log.Warn("command menu not updated", logx.Err(err))
	}
	if a.pruner != nil {
		if err := a.pruner.Start(a.sup.Context()); err != nil {
			return err
		}
	}

	a.sup.Go("commands.dispatch", func(c context.Context) error {
		return a.handler.DispatchLoop(c, a.updates)
	})
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})
	a.startWatchdog()

	if ok, err := a.notify(daemon.SdNotifyReady); err != nil {
		a.log.Warn("systemd notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified ready")
	}
	a.log.Info("app started")
	return nil
}

// startWatchdog pings systemd at half the unit's WatchdogSec when set.
func (a *App) startWatchdog() {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval <= 0 {
		return
	}
	a.sup.Go0("systemd.watchdog", func(c context.Context) {
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-c.Done():
				return
			case <-t.C:
				_, _ = a.notify(daemon.SdNotifyWatchdog)
			}
		}
	})
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		if a.logs != nil {
			_ = a.logs.Close()
		}
		return a.closeStore()
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	_, _ = a.notify(daemon.SdNotifyStopping)
	a.sup.Cancel()

	var errs []error
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name), logx.Duration("elapsed", time.Since(start)))
		}
	}

	step("prune", time.Second, func(c context.Context) error {
		if a.pruner == nil {
			return nil
		}
		return a.pruner.Stop(c)
	})
	step("adapter", 2*time.Second, a.adapter.Stop)
	step("supervisor", 2*time.Second, a.sup.Wait)
	step("storage", time.Second, func(context.Context) error { return a.closeStore() })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return errors.Join(errs...)
}

func (a *App) closeStore() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
