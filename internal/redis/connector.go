package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/linkvault/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Options configures the redirect cache client and how hard Connect tries
// before giving up.
type Options struct {
	Addr         string
	User         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int

	ConnectTimeout time.Duration // total budget for all attempts
	RetryInterval  time.Duration // first wait, doubled after each failure
	MaxWait        time.Duration // cap on the wait between attempts
	PingTimeout    time.Duration // per attempt
	WarnThreshold  int           // attempts logged at warn before switching to error
}

func (o Options) validate() error {
	var errs []error
	if o.Addr == "" {
		errs = append(errs, errors.New("Addr must be set"))
	}
	if o.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("ConnectTimeout must be > 0, got %v", o.ConnectTimeout))
	}
	if o.RetryInterval <= 0 {
		errs = append(errs, fmt.Errorf("RetryInterval must be > 0, got %v", o.RetryInterval))
	}
	if o.MaxWait <= 0 {
		errs = append(errs, fmt.Errorf("MaxWait must be > 0, got %v", o.MaxWait))
	}
	if o.PingTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PingTimeout must be > 0, got %v", o.PingTimeout))
	}
	if o.WarnThreshold < 0 {
		errs = append(errs, fmt.Errorf("WarnThreshold must be >= 0, got %d", o.WarnThreshold))
	}
	return errors.Join(errs...)
}

// backoff doubles the wait on every call up to max.
type backoff struct {
	next time.Duration
	max  time.Duration
}

func (b *backoff) wait() time.Duration {
	w := b.next
	b.next *= 2
	if b.next > b.max {
		b.next = b.max
	}
	return w
}

// Connect builds a client and pings it until it answers or ConnectTimeout
// (bounded by ctx) runs out.
func Connect(ctx context.Context, opts Options, log logger.Logger) (*redis.Client, error) {
	if err := opts.validate(); err != nil {
		log.Error("invalid redis options", logger.Error(err))
		return nil, fmt.Errorf("redis options: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Username:     opts.User,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
	})

	if err := pingUntilReady(ctx, client, opts, log); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func pingUntilReady(parent context.Context, client *redis.Client, opts Options, log logger.Logger) error {
	ctx, cancel := context.WithTimeout(parent, opts.ConnectTimeout)
	defer cancel()

	log.Info("connecting to redis",
		logger.String("addr", opts.Addr),
		logger.Duration("timeout", opts.ConnectTimeout))

	start := time.Now()
	bo := backoff{next: opts.RetryInterval, max: opts.MaxWait}

	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, opts.PingTimeout)
		err := client.Ping(pingCtx).Err()
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected to redis after retry",
					logger.String("addr", opts.Addr),
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected to redis", logger.String("addr", opts.Addr))
			}
			return nil
		}

		wait := bo.wait()
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("redis unavailable, giving up",
				logger.String("addr", opts.Addr),
				logger.Int("attempts", attempt),
				logger.Duration("timeout", opts.ConnectTimeout),
				logger.Error(err))
			return fmt.Errorf("redis unavailable at %s after %d attempts (timeout: %v): %w",
				opts.Addr, attempt, opts.ConnectTimeout, err)
		case <-timer.C:
			logRetry(log, opts, attempt, timeLeft(ctx), wait, err)
		}
	}
}

func logRetry(log logger.Logger, opts Options, attempt int, remaining, wait time.Duration, err error) {
	fields := []logger.Field{
		logger.String("addr", opts.Addr),
		logger.Int("attempt", attempt),
		logger.Duration("next_retry_in", wait),
		logger.Error(err),
	}
	switch {
	case remaining < 10*time.Second:
		log.Error("redis still down, timeout approaching",
			append(fields, logger.Duration("remaining", remaining))...)
	case attempt <= opts.WarnThreshold:
		log.Warn("redis connection failed, retrying", fields...)
	default:
		log.Error("redis still unavailable", fields...)
	}
}

func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
