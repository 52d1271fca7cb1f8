// Package app wires the bot together: configuration, logging, the seen
// store, the Telegram sender, the poll pipeline and the scheduler, plus
// config hot-reload while running.
package app

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/GoJackzi/zama-news-bot/internal/config"
	"github.com/GoJackzi/zama-news-bot/internal/dispatch"
	"github.com/GoJackzi/zama-news-bot/internal/format"
	"github.com/GoJackzi/zama-news-bot/internal/news"
	"github.com/GoJackzi/zama-news-bot/internal/pipeline"
	"github.com/GoJackzi/zama-news-bot/internal/runtime/supervisor"
	"github.com/GoJackzi/zama-news-bot/internal/scheduler"
	"github.com/GoJackzi/zama-news-bot/internal/store"
	"github.com/GoJackzi/zama-news-bot/internal/transport/telegram"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
	"github.com/GoJackzi/zama-news-bot/pkg/systemd"
)

type App struct {
	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service

	store  *store.Store
	sender *telegram.Sender
	disp   *dispatch.Dispatcher
	sched  *scheduler.Scheduler

	// mu guards the pipeline and its category list, which are swapped
	// when a config reload changes the source set.
	mu   sync.RWMutex
	pipe *pipeline.Pipeline
	cats []news.Category

	announce bool
}

// New loads and validates the config file and builds every component.
// The Telegram token is verified against the Bot API here, so a bad
// credential fails the boot instead of the first announcement.
func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgPath, err)
	}

	logs, log := logx.New(mapLoggingConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	tgCfg, err := mapTelegramConfig(cfg)
	if err != nil {
		return nil, err
	}
	sender, err := telegram.New(tgCfg, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	stCfg, err := mapStoreConfig(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(stCfg, log.With(logx.String("comp", "store")))
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", stCfg.Path, err)
	}

	a := &App{
		cfgm:     cfgm,
		log:      log,
		logs:     logs,
		store:    st,
		sender:   sender,
		announce: config.BoolOr(cfg.Poll.StartupAnnouncement, true),
	}

	dispCfg, err := mapDispatchConfig(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	a.disp = dispatch.New(sender, dispCfg, log.With(logx.String("comp", "dispatch")))

	if err := a.buildPipeline(cfg); err != nil {
		_ = st.Close()
		return nil, err
	}

	schedCfg, err := mapSchedulerConfig(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	a.sched = scheduler.New(a.runCycle, schedCfg, log.With(logx.String("comp", "scheduler")))

	return a, nil
}

// Done is closed when the supervisor context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// Start posts the startup announcement, kicks off the poll schedule and
// launches the config watch and reload loops.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return config.Validate(cfg)
	})

	if a.announce {
		a.mu.RLock()
		cats := a.cats
		a.mu.RUnlock()
		if err := a.disp.Send(a.sup.Context(), format.StartupMessage(cats)); err != nil {
			a.log.Warn("startup announcement failed", logx.Err(err))
		}
	}

	a.sched.Start(a.sup.Context())

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
	})
	a.sup.Go("config.watch", a.cfgm.Watch)
	a.sup.Go0("systemd.watchdog", systemd.RunWatchdog)

	a.log.Info("app started")
	return nil
}

// Stop shuts the bot down: no new cycles, the in-flight cycle unwinds
// through its cancelled context, then background loops and the store.
func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")

	a.sup.Cancel()

	a.step(ctx, "scheduler", 10*time.Second, func(context.Context) error {
		a.sched.Stop()
		return nil
	})
	a.step(ctx, "supervisor", 3*time.Second, a.sup.Wait)
	a.step(ctx, "store", 2*time.Second, func(context.Context) error {
		return a.store.Close()
	})

	a.log.Info("stopped")
	a.logs.Close()
	return nil
}

// step runs one shutdown action with an upper bound so a stuck component
// cannot stall the whole stop. A step that overruns is logged again when
// it eventually finishes.
func (a *App) step(ctx context.Context, name string, max time.Duration, fn func(context.Context) error) {
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < max {
			max = rem
		}
	}
	stepCtx := ctx
	if max > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, max)
		defer cancel()
	}

	start := time.Now()
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
			a.log.Warn("stop step failed", logx.String("name", name), logx.Err(err))
		}
		a.log.Debug("stop step done", logx.String("name", name), logx.Duration("took", time.Since(start)))
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached, continuing",
			logx.String("name", name),
			logx.Duration("elapsed", time.Since(start)),
		)
		go func() {
			err := <-done
			a.log.Warn("stop step finished after deadline",
				logx.String("name", name),
				logx.Err(err),
				logx.Duration("took", time.Since(start)),
			)
		}()
	}
}

func (a *App) runCycle(ctx context.Context) {
	a.mu.RLock()
	pipe := a.pipe
	a.mu.RUnlock()
	pipe.Run(ctx)
}

// buildPipeline assembles the source adapters and the pipeline from cfg
// and swaps them in.
func (a *App) buildPipeline(cfg *config.Config) error {
	pipeCfg, err := mapPipelineConfig(cfg)
	if err != nil {
		return err
	}
	sources := buildSources(cfg, a.store, a.log.With(logx.String("comp", "source")))
	pipe := pipeline.New(sources, a.store, a.disp, pipeCfg,
		a.log.With(logx.String("comp", "pipeline")))

	a.mu.Lock()
	a.pipe = pipe
	a.cats = categoriesOf(sources)
	a.mu.Unlock()
	return nil
}

// reloadLoop applies config changes published by the manager. Reloads
// arrive validated; a mapping failure here keeps the previous component
// state rather than tearing anything down.
func (a *App) reloadLoop(ctx context.Context, sub chan *config.Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			sections, attrs := config.SummarizeChange(lastApplied, newCfg)
			if len(sections) == 0 {
				a.log.Debug("config reload received, no effective changes")
				lastApplied = newCfg
				continue
			}
			a.applyConfig(lastApplied, newCfg, sections)
			lastApplied = newCfg

			fields := append([]logx.Field{logx.Any("changed", sections)}, attrs...)
			a.log.Info("config reloaded", fields...)
		}
	}
}

func (a *App) applyConfig(oldCfg, newCfg *config.Config, sections []string) {
	if slices.Contains(sections, "logging") {
		a.logs.Apply(mapLoggingConfig(newCfg))
	}

	if slices.Contains(sections, "telegram") {
		a.log.Warn("telegram config changed; restart required to take effect")
	}

	if slices.Contains(sections, "storage") {
		if oldCfg.Storage.Path != newCfg.Storage.Path ||
			oldCfg.Storage.BusyTimeout != newCfg.Storage.BusyTimeout {
			a.log.Warn("storage location changed; restart required to take effect")
		}
	}

	if slices.Contains(sections, "dispatch") {
		if cfg, err := mapDispatchConfig(newCfg); err != nil {
			a.log.Warn("invalid dispatch config; keeping previous", logx.Err(err))
		} else {
			a.disp.Reconfigure(cfg)
		}
	}

	if slices.Contains(sections, "poll") {
		if cfg, err := mapSchedulerConfig(newCfg); err != nil {
			a.log.Warn("invalid poll config; keeping previous", logx.Err(err))
		} else if cfg.Interval > 0 {
			a.sched.UpdateInterval(cfg.Interval)
		}
	}

	// Source set and retention feed the pipeline; rebuild it for either.
	if slices.Contains(sections, "sources") || slices.Contains(sections, "storage") {
		if err := a.buildPipeline(newCfg); err != nil {
			a.log.Warn("pipeline rebuild failed; keeping previous", logx.Err(err))
		}
	}
}
