// Package dispatch delivers rendered messages to the announcement
// channel one at a time, pacing sends and retrying transient failures.
package dispatch

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/GoJackzi/zama-news-bot/internal/transport"
	"github.com/GoJackzi/zama-news-bot/pkg/logx"
)

// Config tunes pacing and retries.
type Config struct {
	MessageInterval time.Duration // minimum gap between consecutive sends
	SendTimeout     time.Duration // bound on a single delivery attempt
	RetryMax        int           // retries after the first attempt
	RetryBase       time.Duration
	RetryMaxDelay   time.Duration
}

func (c Config) withDefaults() Config {
	if c.MessageInterval <= 0 {
		c.MessageInterval = 2 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 10 * time.Second
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 15 * time.Second
	}
	return c
}

// Dispatcher serializes deliveries through one Sender.
type Dispatcher struct {
	sender transport.Sender
	log    logx.Logger

	mu      sync.Mutex
	cfg     Config
	limiter *rate.Limiter
	rng     *rand.Rand
}

// New builds a Dispatcher around sender.
func New(sender transport.Sender, cfg Config, log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	cfg = cfg.withDefaults()
	return &Dispatcher{
		sender:  sender,
		log:     log,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.MessageInterval), 1),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Reconfigure applies new pacing and retry settings. Sends already in
// flight keep the snapshot they started with.
func (d *Dispatcher) Reconfigure(cfg Config) {
	cfg = cfg.withDefaults()
	d.mu.Lock()
	if cfg.MessageInterval != d.cfg.MessageInterval {
		d.limiter = rate.NewLimiter(rate.Every(cfg.MessageInterval), 1)
	}
	d.cfg = cfg
	d.mu.Unlock()
}

// Send delivers text after waiting for the pacing gap. Transient
// failures retry with jittered exponential backoff; a retry-after hint
// from the backend overrides the computed delay. Permanent errors
// return immediately so the caller can drop the message.
func (d *Dispatcher) Send(ctx context.Context, text string) error {
	d.mu.Lock()
	cfg := d.cfg
	lim := d.limiter
	d.mu.Unlock()

	maxAttempts := 1 + cfg.RetryMax

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			return err
		}

		cctx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
		err := d.sender.Send(cctx, text)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if transport.IsPermanent(err) {
			d.log.Warn("message dropped", logx.Err(err))
			return err
		}
		if attempt >= maxAttempts {
			break
		}

		delay := d.retryDelay(cfg, attempt, err)
		d.log.Debug("send failed, retrying",
			logx.Err(err),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
		)
		if delay <= 0 {
			continue
		}
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return ctx.Err()
		}
	}
	return lastErr
}

// retryDelay computes the wait before the next attempt: base * 2^(attempt-1)
// capped at RetryMaxDelay, with 0.7..1.3 jitter. A backend retry-after
// hint replaces the exponential schedule but still gets the jitter.
func (d *Dispatcher) retryDelay(cfg Config, attempt int, err error) time.Duration {
	delay := cfg.RetryBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cfg.RetryMaxDelay {
			delay = cfg.RetryMaxDelay
			break
		}
	}
	if hint, ok := transport.RetryAfterHint(err); ok && hint > 0 {
		delay = hint
	}
	if delay > cfg.RetryMaxDelay {
		delay = cfg.RetryMaxDelay
	}

	d.mu.Lock()
	j := 0.7 + d.rng.Float64()*0.6
	d.mu.Unlock()

	delay = time.Duration(float64(delay) * j)
	if delay < 0 {
		return 0
	}
	if delay > cfg.RetryMaxDelay {
		delay = cfg.RetryMaxDelay
	}
	return delay
}
