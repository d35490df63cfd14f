package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const runTimeout = time.Minute

// CodeExpirer moves stale activation codes to EXPIRED.
type CodeExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic maintenance jobs. It is the only background
// goroutine in the process.
type Scheduler struct {
	cron    *cron.Cron
	expirer CodeExpirer
	spec    string
	log     zerolog.Logger
}

func NewScheduler(expirer CodeExpirer, expireSpec string, log zerolog.Logger) *Scheduler {
	cl := cronLogger{log: log}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	return &Scheduler{
		cron:    c,
		expirer: expirer,
		spec:    expireSpec,
		log:     log,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.expireCodes); err != nil {
		return fmt.Errorf("schedule code expiry %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.log.Info().Str("spec", s.spec).Msg("scheduler started")
	return nil
}

// Stop halts scheduling and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn().Msg("scheduler stop timed out with a job still running")
	}
}

func (s *Scheduler) expireCodes() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.expirer.ExpireStale(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("job", "expire_codes").Msg("job failed")
		return
	}
	s.log.Debug().Str("job", "expire_codes").Int64("expired", n).Dur("took", time.Since(start)).Msg("job finished")
}

// cronLogger routes cron's own messages into zerolog.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
