package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultSweepSchedule runs the breach sweep every five minutes.
const DefaultSweepSchedule = "@every 5m"

// BreachSweeper escalates overdue tickets.
type BreachSweeper interface {
	SweepBreaches(ctx context.Context) (int, error)
}

// SLASweeper runs a BreachSweeper on a cron schedule. Runs never overlap.
type SLASweeper struct {
	cron    *cron.Cron
	sweeper BreachSweeper
	logger  *zap.Logger
	timeout time.Duration
}

// NewSLASweeper parses schedule (standard five fields or a descriptor such as
// "@every 5m") and registers the sweep. Each run is bounded by timeout.
func NewSLASweeper(sweeper BreachSweeper, schedule string, timeout time.Duration, logger *zap.Logger) (*SLASweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	clog := cronLogger{s: logger.Sugar()}
	w := &SLASweeper{
		cron:    cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog))),
		sweeper: sweeper,
		logger:  logger,
		timeout: timeout,
	}
	if _, err := w.cron.AddFunc(schedule, w.run); err != nil {
		return nil, fmt.Errorf("sla sweep schedule %q: %w", schedule, err)
	}
	return w, nil
}

// Start begins scheduling in the background.
func (w *SLASweeper) Start() {
	w.logger.Info("sla sweeper started")
	w.cron.Start()
}

// Stop halts scheduling and waits for a running sweep to finish or ctx to end.
func (w *SLASweeper) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		w.logger.Warn("sla sweeper stop timed out")
	}
}

// RunOnce performs a single sweep.
func (w *SLASweeper) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	n, err := w.sweeper.SweepBreaches(ctx)
	if err != nil {
		w.logger.Error("sla sweep failed", zap.Error(err))
		return n, err
	}
	if n > 0 {
		w.logger.Info("sla sweep escalated tickets", zap.Int("count", n))
	}
	return n, nil
}

func (w *SLASweeper) run() {
	_, _ = w.RunOnce(context.Background())
}

type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
