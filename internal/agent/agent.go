package agent

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/otakit/ota-agent/internal/agent/core"
	"github.com/otakit/ota-agent/internal/agent/oracle"
	"github.com/otakit/ota-agent/internal/agent/ota"
	"github.com/otakit/ota-agent/internal/agent/transfer"
	"github.com/otakit/ota-agent/internal/pkg/metrics"
	"github.com/otakit/ota-agent/pkg/log"
	"github.com/otakit/ota-agent/pkg/options"
)

// Updater runs one check cycle.
type Updater interface {
	CheckAndApply(ctx context.Context, current oracle.FirmwareVersion, deviceID string) ota.Decision
}

// Service is a long running companion of the update loop, such as the status server.
type Service interface {
	Start(ctx context.Context) error
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context) error

func (f ServiceFunc) Start(ctx context.Context) error { return f(ctx) }

// Agent drives the update cycle on a fixed cadence and restarts the device
// after a committed update.
type Agent struct {
	deviceID string
	current  oracle.FirmwareVersion

	hal      core.HAL
	updater  Updater
	sender   core.Sender
	services []Service

	interval    time.Duration
	maxBackoff  time.Duration
	rebootDelay time.Duration

	trigger  chan struct{}
	progress chan core.ProgressReport
	ready    atomic.Bool

	mu           sync.RWMutex
	status       core.Status
	lastProgress time.Time
}

// progressInterval is the least time between two published progress reports.
const progressInterval = time.Second

// New returns an agent that reports nowhere and has no updater yet; the
// caller sets both, as Config.NewAgent does.
func New(deviceID string, current oracle.FirmwareVersion, opts *options.UpdateOptions) *Agent {
	return &Agent{
		deviceID:    deviceID,
		current:     current,
		sender:      core.NopSender{},
		interval:    opts.Interval,
		maxBackoff:  opts.MaxBackoff,
		rebootDelay: opts.RebootDelay,
		trigger:     make(chan struct{}, 1),
		progress:    make(chan core.ProgressReport, 1),
		status: core.Status{
			DeviceID:       deviceID,
			State:          core.StateIdle,
			CurrentVersion: current.String(),
		},
	}
}

// Run starts the update loop and the companion services and blocks until
// ctx is cancelled or one of them fails.
func (a *Agent) Run(ctx context.Context) error {
	log.Info("Starting ota-agent", "deviceID", a.deviceID, "version", a.current, "interval", a.interval)

	g, ctx := errgroup.WithContext(ctx)

	for _, s := range a.services {
		g.Go(func() error {
			return s.Start(ctx)
		})
	}
	g.Go(func() error {
		return a.reportProgress(ctx)
	})
	g.Go(func() error {
		return a.loop(ctx)
	})

	return g.Wait()
}

// Trigger asks for a check cycle now. Requests made while a cycle runs collapse into one.
func (a *Agent) Trigger() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

func (a *Agent) loop(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = a.interval
	b.MaxInterval = a.maxBackoff
	b.RandomizationFactor = 0.1
	b.MaxElapsedTime = 0
	b.Reset()

	a.ready.Store(true)
	defer a.ready.Store(false)

	for {
		d := a.RunOnce(ctx)

		wait := a.interval
		if d.Result == ota.UpdateFailed {
			wait = b.NextBackOff()
		} else {
			b.Reset()
		}

		if d.RestartRequired() {
			if !a.restart(ctx, d) {
				return nil
			}
		}

		a.updateStatus(func(s *core.Status) { s.NextCheck = time.Now().Add(wait) })
		log.Debug("Waiting for next check", "wait", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("Shutting down ota-agent.")
			a.publishStatus(context.WithoutCancel(ctx), core.StateOffline)
			return nil
		case <-a.trigger:
			timer.Stop()
			log.Info("Check requested")
		case <-timer.C:
		}
	}
}

// RunOnce runs a single check cycle and records its outcome.
func (a *Agent) RunOnce(ctx context.Context) ota.Decision {
	log.Info("--- Check cycle start ---", "current", a.current)
	a.updateStatus(func(s *core.Status) {
		s.State = core.StateChecking
		s.Reason, s.Message = "", ""
	})

	d := a.updater.CheckAndApply(ctx, a.current, a.deviceID)

	metrics.CheckCyclesTotal.WithLabelValues(d.Result.String()).Inc()
	metrics.LastCheckTimestamp.SetToCurrentTime()

	state := core.StateIdle
	switch d.Result {
	case ota.UpdateFailed:
		state = core.StateFailed
		metrics.CheckFailuresTotal.WithLabelValues(core.Reason(d.Err)).Inc()
		log.Error(d.Err, "Check cycle failed", "reason", core.Reason(d.Err), "target", d.Target)
	case ota.UpdateApplied:
		state = core.StateRebooting
		log.Info("Update applied, restart pending", "target", d.Target)
	default:
		log.Info("--- Check cycle end ---", "result", d.Result)
	}

	a.updateStatus(func(s *core.Status) {
		s.State = state
		s.TargetVersion = d.Target.String()
		s.LastCheck = time.Now()
		s.Reason = core.Reason(d.Err)
		if d.Err != nil {
			s.Message = d.Err.Error()
		}
	})
	a.publishStatus(ctx, state)
	return d
}

// restart waits the reboot delay and restarts the device. It reports
// whether the loop should go on, which is only the case when the reboot
// was simulated or failed.
func (a *Agent) restart(ctx context.Context, d ota.Decision) bool {
	timer := time.NewTimer(a.rebootDelay)
	select {
	case <-ctx.Done():
		timer.Stop()
		log.Info("Shutdown before restart, the new image boots on next start", "target", d.Target)
		return false
	case <-timer.C:
	}

	if err := a.hal.Reboot(); err != nil {
		log.Error(err, "Reboot failed, the new image boots on next start", "target", d.Target)
		a.updateStatus(func(s *core.Status) {
			s.State = core.StateFailed
			s.Reason = "reboot_failed"
			s.Message = err.Error()
		})
		a.publishStatus(ctx, core.StateFailed)
		return true
	}

	// Only a simulated reboot returns: the process now runs the new image.
	a.current = d.Target
	a.updateStatus(func(s *core.Status) {
		s.State = core.StateIdle
		s.CurrentVersion = d.Target.String()
	})
	a.publishStatus(ctx, core.StateIdle)
	return true
}

// Status returns a snapshot of the agent status.
func (a *Agent) Status() core.Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Ready reports whether the update loop is running.
func (a *Agent) Ready() bool {
	return a.ready.Load()
}

func (a *Agent) updateStatus(fn func(s *core.Status)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(&a.status)
}

func (a *Agent) publishStatus(ctx context.Context, state core.State) {
	status := a.Status()
	status.State = state
	if err := a.sender.SendJSON(ctx, core.EventStatus, status); err != nil {
		log.Debug("Status not published", "error", err.Error())
	}
}

// onProgress is the install progress callback. It keeps the download
// going: reports are handed to reportProgress and dropped when it lags.
func (a *Agent) onProgress(p transfer.Progress) {
	a.mu.Lock()
	a.status.State = core.StateInstalling
	now := time.Now()
	due := p.Reached() || now.Sub(a.lastProgress) >= progressInterval
	if due {
		a.lastProgress = now
	}
	a.mu.Unlock()

	if !due {
		return
	}

	report := core.ProgressReport{
		DeviceID:       a.deviceID,
		BytesRead:      p.BytesRead,
		DeclaredLength: p.DeclaredLength,
		Percent:        p.Percent(),
	}
	log.Debug("Transfer progress", "bytesRead", p.BytesRead, "declaredLength", p.DeclaredLength, "percent", report.Percent)

	select {
	case a.progress <- report:
	default:
		// Replace the stale report.
		select {
		case <-a.progress:
		default:
		}
		select {
		case a.progress <- report:
		default:
		}
	}
}

func (a *Agent) reportProgress(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case report := <-a.progress:
			if err := a.sender.SendJSON(ctx, core.EventProgress, report); err != nil {
				log.Debug("Progress not published", "error", err.Error())
			}
		}
	}
}
