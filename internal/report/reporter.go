// Package report implements the adaptive state-reporting engine: it
// decides, for every tracked target, whether, when, and which fields to
// emit on the downstream text feed as the target's state evolves.
package report

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/unklstewy/uatfeed/pkg/uat"
)

// TrackerSource is the read side of the tracker as consumed by the
// reporter.
type TrackerSource interface {
	// Aircraft returns a value-copied snapshot of all tracked targets,
	// stable for the duration of one firing.
	Aircraft() map[uat.AddressKey]uat.AircraftState

	// PurgeOld drops targets the tracker considers stale.
	PurgeOld()
}

// Clock supplies the current time, so tests can drive the reporter with
// synthetic timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall-clock Clock used outside tests.
var SystemClock Clock = systemClock{}

// Report is one emitted feed line plus the state it was generated from,
// handed to fan-out sinks (archive, live feed).
type Report struct {
	Key   uat.AddressKey
	State uat.AircraftState
	Line  string
	Time  time.Time
}

// Sink receives emitted reports. Publish must not block; slow consumers
// are expected to buffer or drop internally.
type Sink interface {
	Publish(Report)
}

// Config holds the reporter's timing knobs.
type Config struct {
	// Interval is the period of the report task.
	Interval time.Duration

	// Timeout is the tracker staleness timeout; the ledger purge task
	// runs every Timeout/4.
	Timeout time.Duration

	// SlowInterval is the full-refresh period: slow fields and the
	// address type are re-emitted at least this often.
	SlowInterval time.Duration
}

// DefaultConfig returns the standard feed timing.
func DefaultConfig() Config {
	return Config{
		Interval:     time.Second,
		Timeout:      300 * time.Second,
		SlowInterval: 300 * time.Second,
	}
}

// record is the ledger entry for one target: when it last reported, when
// it last did a full refresh, and a snapshot of the state that was
// reported, used as the change-detection baseline.
type record struct {
	reportTime     time.Time
	slowReportTime time.Time
	state          uat.AircraftState
}

// Reporter runs the periodic report and purge tasks and owns the report
// ledger. Both tasks execute on the single Run goroutine, so the ledger
// needs no locking.
type Reporter struct {
	cfg     Config
	tracker TrackerSource
	out     io.Writer
	clock   Clock
	sinks   []Sink

	ledger map[uat.AddressKey]*record

	emitted    atomic.Int64
	suppressed atomic.Int64
	ledgerSize atomic.Int64
}

// New creates a reporter writing feed lines to out. A nil clock selects
// the system clock.
func New(cfg Config, tracker TrackerSource, out io.Writer, clock Clock) *Reporter {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 300 * time.Second
	}
	if cfg.SlowInterval <= 0 {
		cfg.SlowInterval = 300 * time.Second
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Reporter{
		cfg:     cfg,
		tracker: tracker,
		out:     out,
		clock:   clock,
		ledger:  make(map[uat.AddressKey]*record),
	}
}

// AddSink registers a fan-out sink. Must be called before Run.
func (r *Reporter) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// Stats is a point-in-time view of reporter activity.
type Stats struct {
	Emitted    int64 `json:"reports_emitted"`
	Suppressed int64 `json:"reports_suppressed"`
	LedgerSize int64 `json:"ledger_size"`
}

// Stats returns cumulative reporter counters. Safe to call from any
// goroutine.
func (r *Reporter) Stats() Stats {
	return Stats{
		Emitted:    r.emitted.Load(),
		Suppressed: r.suppressed.Load(),
		LedgerSize: r.ledgerSize.Load(),
	}
}

// Run executes both periodic tasks until ctx is cancelled. Each task
// reschedules itself relative to the end of its firing, so a slow firing
// delays the next one instead of bunching. Returns a write error from the
// output sink; the caller decides whether that is fatal.
func (r *Reporter) Run(ctx context.Context) error {
	// First firing of both tasks happens immediately.
	if err := r.reportAll(r.clock.Now()); err != nil {
		return err
	}
	r.purge()

	reportTimer := time.NewTimer(r.cfg.Interval)
	defer reportTimer.Stop()
	purgeTimer := time.NewTimer(r.cfg.Timeout / 4)
	defer purgeTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reportTimer.C:
			if err := r.reportAll(r.clock.Now()); err != nil {
				return err
			}
			reportTimer.Reset(r.cfg.Interval)
		case <-purgeTimer.C:
			r.purge()
			purgeTimer.Reset(r.cfg.Timeout / 4)
		}
	}
}

// reportAll evaluates every tracked target once against the ledger.
func (r *Reporter) reportAll(now time.Time) error {
	for key, ac := range r.tracker.Aircraft() {
		if err := r.reportOne(key, ac, now); err != nil {
			return err
		}
	}
	r.ledgerSize.Store(int64(len(r.ledger)))
	return nil
}

// purge delegates to the tracker's own staleness purge, then drops ledger
// entries whose key the tracker no longer knows. Ledger entries are never
// dropped merely for not reporting recently.
func (r *Reporter) purge() {
	r.tracker.PurgeOld()

	aircraft := r.tracker.Aircraft()
	for key := range r.ledger {
		if _, ok := aircraft[key]; !ok {
			delete(r.ledger, key)
		}
	}
	r.ledgerSize.Store(int64(len(r.ledger)))
}

// Change thresholds for the coarse diff against the last reported state,
// and the freshness window for the flight-phase hints.
const (
	altitudeThreshold     = 50  // feet
	verticalRateThreshold = 500 // feet/min
	headingThreshold      = 2.0 // degrees
	groundSpeedThreshold  = 25  // knots

	freshnessWindow = 30 * time.Second
)

// reportOne runs the emission decision for a single target and writes at
// most one feed line.
func (r *Reporter) reportOne(key uat.AddressKey, ac uat.AircraftState, now time.Time) error {
	rec := r.ledger[key]
	if rec == nil {
		rec = &record{}
		r.ledger[key] = rec
	}

	if !ac.LastMessageTime.After(rec.reportTime) {
		// no data received since the last report
		r.suppressed.Add(1)
		return nil
	}

	// If the same airframe is heard both directly and via TIS-B, prefer
	// the direct ADS-B data and inhibit the TIS-B report. Resetting the
	// report times forces a full report if ADS-B later disappears and
	// TIS-B becomes authoritative again.
	if key.Qualifier == uat.QualifierTISBICAO {
		adsb := r.ledger[uat.AddressKey{Qualifier: uat.QualifierADSBICAO, Address: key.Address}]
		if adsb != nil && !adsb.reportTime.IsZero() {
			rec.reportTime = time.Time{}
			rec.slowReportTime = time.Time{}
			r.suppressed.Add(1)
			return nil
		}
	}

	prev := &rec.state
	changed := deltaAtLeast(&prev.PressureAltitude, &ac.PressureAltitude, altitudeThreshold) ||
		deltaAtLeast(&prev.GeometricAltitude, &ac.GeometricAltitude, altitudeThreshold) ||
		deltaAtLeast(&prev.VerticalRateBaro, &ac.VerticalRateBaro, verticalRateThreshold) ||
		deltaAtLeast(&prev.VerticalRateGeom, &ac.VerticalRateGeom, verticalRateThreshold) ||
		deltaAtLeast(&prev.TrueTrack, &ac.TrueTrack, headingThreshold) ||
		deltaAtLeast(&prev.TrueHeading, &ac.TrueHeading, headingThreshold) ||
		deltaAtLeast(&prev.MagneticHeading, &ac.MagneticHeading, headingThreshold) ||
		deltaAtLeast(&prev.GroundSpeed, &ac.GroundSpeed, groundSpeedThreshold)

	// Intent and identity changes go out right away, regardless of the
	// rate gates below.
	immediate := ac.SelectedAltitudeMCP.Changed().After(rec.reportTime) ||
		ac.SelectedAltitudeFMS.Changed().After(rec.reportTime) ||
		ac.SelectedHeading.Changed().After(rec.reportTime) ||
		ac.ModeIndicators.Changed().After(rec.reportTime) ||
		ac.BaroSetting.Changed().After(rec.reportTime) ||
		ac.Callsign.Changed().After(rec.reportTime) ||
		ac.FlightPlanID.Changed().After(rec.reportTime) ||
		ac.AirGround.Changed().After(rec.reportTime) ||
		ac.Emergency.Changed().After(rec.reportTime)

	// Flight-phase hints, each valid only while fresh.
	altitude, altitudeKnown := 0, false
	if ac.PressureAltitude.UpdateAge(now) < freshnessWindow {
		altitude, altitudeKnown = ac.PressureAltitude.Value(), true
	} else if ac.GeometricAltitude.UpdateAge(now) < freshnessWindow {
		altitude, altitudeKnown = ac.GeometricAltitude.Value(), true
	}

	var airground uat.AirGroundState
	airgroundKnown := false
	if ac.AirGround.UpdateAge(now) < freshnessWindow {
		airground, airgroundKnown = ac.AirGround.Value(), true
	}

	groundspeed, groundspeedKnown := 0, false
	if ac.GroundSpeed.UpdateAge(now) < freshnessWindow {
		groundspeed, groundspeedKnown = ac.GroundSpeed.Value(), true
	}

	var minAge time.Duration
	switch {
	case immediate:
		minAge = 0
	case airgroundKnown && airground == uat.OnGround:
		// on the ground, increase the update rate
		minAge = 1000 * time.Millisecond
	case altitudeKnown && altitude < 500 && (!groundspeedKnown || groundspeed < 200):
		// probably on the ground
		minAge = 1000 * time.Millisecond
	case groundspeedKnown && groundspeed < 100 && (!altitudeKnown || altitude < 1000):
		// probably on the ground
		minAge = 1000 * time.Millisecond
	case !altitudeKnown || altitude < 10000:
		// below 10000 feet, up to every 5s when changing, 10s otherwise
		if changed {
			minAge = 5000 * time.Millisecond
		} else {
			minAge = 10000 * time.Millisecond
		}
	default:
		// cruise; up to every 10s when changing, 30s otherwise
		if changed {
			minAge = 10000 * time.Millisecond
		} else {
			minAge = 30000 * time.Millisecond
		}
	}

	forceSlow := now.Sub(rec.slowReportTime) > r.cfg.SlowInterval

	if now.Sub(rec.reportTime) < minAge {
		// not this time
		r.suppressed.Add(1)
		return nil
	}

	line := formatLine(&ac, now, rec.reportTime, forceSlow)
	if line == "" {
		// nothing selected; a bare header is not worth the bandwidth
		r.suppressed.Add(1)
		return nil
	}

	if _, err := fmt.Fprintln(r.out, line); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if forceSlow {
		rec.slowReportTime = now
	}
	rec.reportTime = now
	rec.state = ac
	r.emitted.Add(1)

	for _, s := range r.sinks {
		s.Publish(Report{Key: key, State: ac, Line: line, Time: now})
	}
	return nil
}

// deltaAtLeast reports whether a field moved by at least threshold since
// the last reported state. Both the baseline and the current value must
// be valid for a change to count.
func deltaAtLeast[T int | float64](prev, cur *uat.AgedField[T], threshold T) bool {
	if !prev.Valid() || !cur.Valid() {
		return false
	}
	d := prev.Value() - cur.Value()
	if d < 0 {
		d = -d
	}
	return d >= threshold
}
