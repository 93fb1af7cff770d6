package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "tgmarkup/pkg/logx"
)

const (
	defaultPruneSchedule = "@hourly"
	pruneTimeout         = 30 * time.Second
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParsePruneSchedule checks a storage.prune_schedule value.
func ParsePruneSchedule(spec string) (cron.Schedule, error) {
	s, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("storage.prune_schedule: invalid %q: %w", spec, err)
	}
	return s, nil
}

type peerPruner interface {
	PruneExpired(ctx context.Context, now time.Time) (int64, error)
}

// pruner drops expired peers from the store on a cron schedule.
type pruner struct {
	log   logx.Logger
	store peerPruner
	spec  string
	now   func() time.Time

	mu sync.Mutex
	c  *cron.Cron
}

func newPruner(log logx.Logger, store peerPruner, spec string) (*pruner, error) {
	if _, err := ParsePruneSchedule(spec); err != nil {
		return nil, err
	}
	return &pruner{log: log, store: store, spec: spec, now: time.Now}, nil
}

func (p *pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.c != nil || p.store == nil {
		return nil
	}
	cl := cronLogger{log: p.log}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(p.spec, func() { p.run(ctx) }); err != nil {
		return err
	}
	c.Start()
	p.c = c
	p.log.Info("peer pruning scheduled", logx.String("schedule", p.spec))
	return nil
}

func (p *pruner) run(ctx context.Context) (int64, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	rctx, cancel := context.WithTimeout(ctx, pruneTimeout)
	defer cancel()
	n, err := p.store.PruneExpired(rctx, p.now())
	if err != nil {
		p.log.Warn("peer prune failed", logx.Err(err))
		return 0, err
	}
	p.log.Debug("peer prune done", logx.Int64("rows", n))
	return n, nil
}

func (p *pruner) Stop(ctx context.Context) error {
	p.mu.Lock()
	c := p.c
	p.c = nil
	p.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's own messages into logx.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug("cron: "+msg, kvFields(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error("cron: "+msg, append(kvFields(kv), logx.Err(err))...)
}

func kvFields(kv []any) []logx.Field {
	fields := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return fields
}
