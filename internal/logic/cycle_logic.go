package logic

import (
	"context"
	"errors"
	"time"

	"revokeradar/internal/metrics"
	"revokeradar/internal/svc"
	"revokeradar/internal/types"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

// ErrInterrupted reports that the operator stopped the radar in the middle of a cycle.
var ErrInterrupted = errors.New("interrupted by operator")

type State int

const (
	StateIdle State = iota
	StateScanning
	StateRevoking
	StateSleeping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateRevoking:
		return "revoking"
	case StateSleeping:
		return "sleeping"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Clock lets tests drive the poll loop without waiting.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// CycleDriver runs scan-and-revoke cycles until its context is cancelled.
//
//	Idle -> Scanning -> Revoking -> Sleeping -> Scanning -> ...
//
// Any state moves to Terminated on cancellation. A failed cycle is logged and the
// driver still sleeps the full interval before the next one.
type CycleDriver struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	clock  Clock
	state  State
	cycle  uint64
	logx.Logger
}

// NewCycleDriver returns a driver bound to ctx. A nil clock means wall-clock time.
func NewCycleDriver(ctx context.Context, svcCtx *svc.ServiceContext, clock Clock) *CycleDriver {
	if clock == nil {
		clock = realClock{}
	}
	d := &CycleDriver{
		ctx:    ctx,
		svcCtx: svcCtx,
		clock:  clock,
		Logger: logx.WithContext(ctx),
	}
	d.setState(StateIdle)
	return d
}

func (d *CycleDriver) State() State {
	return d.state
}

// Run blocks until the context is cancelled.
func (d *CycleDriver) Run() {
	defer d.terminate()

	for !interrupted(d.ctx) {
		if _, err := d.RunCycle(); err != nil {
			if errors.Is(err, ErrInterrupted) {
				d.Infof("cycle %d abandoned: %v", d.cycle, err)
				return
			}
			d.Errorf("cycle %d failed: %v", d.cycle, err)
		}

		if !d.sleep() {
			return
		}
	}
}

// RunCycle performs one scan-and-revoke pass and publishes its report.
func (d *CycleDriver) RunCycle() (*types.CycleReport, error) {
	d.cycle++
	dryRun := d.svcCtx.Config.Radar.DryRun
	mode := metrics.Mode(dryRun)

	report := &types.CycleReport{
		Id:        uuid.NewString(),
		Cycle:     d.cycle,
		StartedAt: d.clock.Now(),
		DryRun:    dryRun,
	}
	d.Infof("===== cycle %d started at %s (dry run: %t) =====", d.cycle, report.StartedAt.UTC().Format(time.RFC3339), dryRun)
	metrics.CyclesTotal.WithLabelValues(mode).Inc()

	ctx := logx.ContextWithFields(d.ctx, logx.Field("cycle_id", report.Id))
	err := d.runCycle(ctx, report)

	report.FinishedAt = d.clock.Now()
	metrics.CycleLatency.WithLabelValues(mode).Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	if err != nil {
		report.Error = err.Error()
		if !errors.Is(err, ErrInterrupted) {
			metrics.CycleErrors.WithLabelValues(mode).Inc()
		}
	}
	d.svcCtx.Publish(report)

	return report, err
}

func (d *CycleDriver) runCycle(ctx context.Context, report *types.CycleReport) error {
	d.setState(StateScanning)
	scan, err := NewScanLogic(ctx, d.svcCtx).Scan()
	if err != nil {
		return err
	}
	report.Tokens = len(scan.Tokens)
	report.PairsScanned = len(scan.Observations)
	report.StartNonce = scan.Nonce

	d.setState(StateRevoking)
	result, err := NewRevokeLogic(ctx, d.svcCtx).Revoke(scan)
	if result != nil {
		report.Findings = result.Findings
		report.Transactions = result.Transactions
		for _, hash := range result.Hashes {
			report.TxHashes = append(report.TxHashes, hash.Hex())
		}
	}
	if err != nil {
		return err
	}

	if len(report.Findings) == 0 {
		d.Info("no positive allowances, nothing to revoke")
	}
	return nil
}

// sleep waits one poll interval and reports false when cancelled first.
func (d *CycleDriver) sleep() bool {
	d.setState(StateSleeping)
	interval := d.svcCtx.Config.Radar.Interval()
	d.Infof("sleeping %s until next cycle", interval)

	select {
	case <-d.clock.After(interval):
		return true
	case <-d.ctx.Done():
		return false
	}
}

func (d *CycleDriver) terminate() {
	d.setState(StateTerminated)
	d.Infof("revokeradar terminated after %d cycles", d.cycle)
}

func (d *CycleDriver) setState(state State) {
	d.state = state
	d.svcCtx.SetState(state.String())
}

func interrupted(ctx context.Context) bool {
	return ctx.Err() != nil
}
