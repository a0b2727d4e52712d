package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type OtpStore interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type GateStore interface {
	DeleteVerifiedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type LogStore interface {
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Pruner removes aged-out rows on a cron schedule: spent OTP codes and gate
// markers after a short retention, audit and email logs after a long one.
// Request logs are never pruned.
type Pruner struct {
	otps      OtpStore
	gates     GateStore
	auditLogs LogStore
	emailLogs LogStore

	otpRetention time.Duration
	logRetention time.Duration

	schedule string
	cron     *cron.Cron
	now      func() time.Time
}

type Deps struct {
	Otps      OtpStore
	Gates     GateStore
	AuditLogs LogStore
	EmailLogs LogStore

	Schedule     string
	OtpRetention time.Duration
	LogRetention time.Duration
	Now          func() time.Time
}

func New(deps Deps) *Pruner {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Pruner{
		otps:         deps.Otps,
		gates:        deps.Gates,
		auditLogs:    deps.AuditLogs,
		emailLogs:    deps.EmailLogs,
		otpRetention: deps.OtpRetention,
		logRetention: deps.LogRetention,
		schedule:     deps.Schedule,
		cron:         cron.New(),
		now:          deps.Now,
	}
}

// Start registers the schedule and begins running in the background.
func (p *Pruner) Start() error {
	if _, err := p.cron.AddFunc(p.schedule, func() { p.RunOnce(context.Background()) }); err != nil {
		return err
	}
	p.cron.Start()
	slog.Info("retention pruner started", "schedule", p.schedule)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (p *Pruner) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// RunOnce performs a single sweep. Each target is independent; a failure in
// one does not stop the others.
func (p *Pruner) RunOnce(ctx context.Context) {
	now := p.now().UTC()
	shortCutoff := now.Add(-p.otpRetention)
	longCutoff := now.Add(-p.logRetention)

	if n, err := p.otps.DeleteExpiredBefore(ctx, shortCutoff); err != nil {
		slog.Error("otp retention sweep failed", "error", err)
	} else if n > 0 {
		slog.Info("pruned expired otp codes", "count", n)
	}

	if n, err := p.gates.DeleteVerifiedBefore(ctx, shortCutoff); err != nil {
		slog.Error("gate marker retention sweep failed", "error", err)
	} else if n > 0 {
		slog.Info("pruned stale verification markers", "count", n)
	}

	if n, err := p.auditLogs.DeleteCreatedBefore(ctx, longCutoff); err != nil {
		slog.Error("audit log retention sweep failed", "error", err)
	} else if n > 0 {
		slog.Info("pruned aged audit logs", "count", n)
	}

	if n, err := p.emailLogs.DeleteCreatedBefore(ctx, longCutoff); err != nil {
		slog.Error("email log retention sweep failed", "error", err)
	} else if n > 0 {
		slog.Info("pruned aged email logs", "count", n)
	}
}
