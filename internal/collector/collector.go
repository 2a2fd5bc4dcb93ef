package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/scadactl/internal/errors"
	"codeberg.org/mutker/scadactl/internal/logger"
	"codeberg.org/mutker/scadactl/internal/scada"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Backoff after an engine-level cycle failure, so a persistent fault
	// cannot spin the loop.
	errorBackoff = time.Second

	// Bound on how long Stop waits for the in-flight cycle. After this
	// the loop is abandoned, not force-killed.
	stopTimeout = 2 * time.Second
)

// Collector samples all configured points at a fixed rate on a background
// goroutine and keeps a bounded rolling history. It tolerates partial and
// total read failures and is designed to run unattended indefinitely.
type Collector struct {
	cfg    Config
	reader scada.Reader
	source PointSource
	ring   *Ring
	ins    *instruments

	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}
	startTime time.Time
	override  []string
	onData    []DataCallback
	onError   []ErrorCallback

	samplesCollected atomic.Uint64
	errorsCount      atomic.Uint64
}

// Option configures optional collector behavior.
type Option func(*Collector)

// WithRegisterer enables prometheus instrumentation on the given
// registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *Collector) {
		c.ins = newInstruments(reg)
	}
}

func New(cfg Config, reader scada.Reader, source PointSource, opts ...Option) (*Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}
	if reader == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "reader must not be nil")
	}
	if source == nil {
		return nil, errFactory.WithMessage(errors.ErrInvalidArgument, "point source must not be nil")
	}

	ring, err := NewRing(cfg.MaxBufferSize())
	if err != nil {
		return nil, err
	}

	c := &Collector{
		cfg:    cfg,
		reader: reader,
		source: source,
		ring:   ring,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// OnData registers a callback invoked for every collected snapshot, in
// registration order.
func (c *Collector) OnData(cb DataCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onData = append(c.onData, cb)
}

// OnError registers a callback invoked for every engine-level cycle
// failure, in registration order.
func (c *Collector) OnError(cb ErrorCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onError = append(c.onError, cb)
}

// IsRunning reports whether the collection loop is active.
func (c *Collector) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}

// Start launches the collection loop. Starting an already running
// collector is a no-op with a warning. Counters reset on restart.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		logger.Warn().Msg("Collector is already running")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.running = true
	c.cancel = cancel
	c.done = make(chan struct{})
	c.startTime = time.Now()
	c.samplesCollected.Store(0)
	c.errorsCount.Store(0)

	go c.loop(ctx, c.done)

	logger.Info().
		Float64("sample_rate_hz", c.cfg.SampleRateHz).
		Int("buffer_seconds", c.cfg.BufferSeconds).
		Int("buffer_max", c.ring.Capacity()).
		Msg("Collector started")
}

// Stop signals the loop and waits up to stopTimeout for the in-flight
// cycle to finish. Best-effort: an overrunning cycle is abandoned, never
// force-killed, and cannot outlive the next read timeout.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	cancel()

	select {
	case <-done:
	case <-time.After(stopTimeout):
		logger.Warn().Msg("Collection cycle did not finish in time; abandoning loop")
	}

	logger.Info().
		Uint64("samples_collected", c.samplesCollected.Load()).
		Msg("Collector stopped")
}

func (c *Collector) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cycleStart := time.Now()

		snapshot, err := c.collectCycle()
		if err != nil {
			c.errorsCount.Add(1)
			if c.ins != nil {
				c.ins.collectErrors.Inc()
			}

			msg := fmt.Sprintf("collection cycle failed: %v", err)
			logger.Error().Msg(msg)
			c.notifyError(msg)

			if !sleepCtx(ctx, errorBackoff) {
				return
			}
			continue
		}

		c.ring.Append(snapshot)
		c.samplesCollected.Add(1)
		if c.ins != nil {
			c.ins.samplesCollected.Inc()
			c.ins.bufferSize.Set(float64(c.ring.Size()))
			c.ins.cycleDuration.Observe(time.Since(cycleStart).Seconds())
		}

		c.notifyData(snapshot)

		// Sleep the remainder of the interval; a cycle that overran
		// proceeds immediately.
		if remaining := c.cfg.SampleInterval() - time.Since(cycleStart); remaining > 0 {
			if !sleepCtx(ctx, remaining) {
				return
			}
		}
	}
}

// collectCycle runs one cycle and converts panics from a misbehaving
// point source into engine-level errors, so a single bad cycle never
// halts future cycles.
func (c *Collector) collectCycle() (snapshot *Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New().WithData(ErrCollectCycle, r)
		}
	}()

	return c.CollectOnce(c.currentPoints()), nil
}

// CollectOnce performs one full round of reads and folds the results
// into a single timestamped snapshot. Failed reads record the missing
// sentinel and count as errors; they never abort the remaining reads.
func (c *Collector) CollectOnce(names []string) *Snapshot {
	readings := c.reader.ReadMultiple(names)

	values := make(map[string]float64, len(names))
	raw := make(map[string]*scada.PointValue, len(names))

	for _, name := range names {
		point := readings[name]
		if point == nil {
			values[name] = Missing()
			c.errorsCount.Add(1)
			if c.ins != nil {
				c.ins.collectErrors.Inc()
			}
			continue
		}
		values[name] = point.Value
		raw[name] = point
	}

	return &Snapshot{
		Timestamp: time.Now(),
		Values:    values,
		Raw:       raw,
	}
}

func (c *Collector) currentPoints() []string {
	c.mu.Lock()
	override := c.override
	c.mu.Unlock()

	if override != nil {
		return override
	}

	return c.source.ListNames()
}

// UpdatePointsList replaces the set of names requested each cycle
// without stopping the loop. Takes effect at the next cycle boundary and
// leaves existing history untouched. A nil list reverts to the point
// source.
func (c *Collector) UpdatePointsList(names []string) {
	c.mu.Lock()
	old := len(c.override)
	if c.override == nil {
		old = len(c.source.ListNames())
	}
	c.override = names
	c.mu.Unlock()

	logger.Info().
		Int("old_points", old).
		Int("new_points", len(names)).
		Msg("Collector point list updated")
}

func (c *Collector) notifyData(snapshot *Snapshot) {
	c.mu.Lock()
	callbacks := make([]DataCallback, len(c.onData))
	copy(callbacks, c.onData)
	c.mu.Unlock()

	for _, cb := range callbacks {
		invokeData(cb, snapshot)
	}
}

func (c *Collector) notifyError(msg string) {
	c.mu.Lock()
	callbacks := make([]ErrorCallback, len(c.onError))
	copy(callbacks, c.onError)
	c.mu.Unlock()

	for _, cb := range callbacks {
		invokeError(cb, msg)
	}
}

// A failing observer must not prevent other observers from running or
// crash the loop.
func invokeData(cb DataCallback, snapshot *Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Data callback failed")
		}
	}()
	cb(snapshot)
}

func invokeError(cb ErrorCallback, msg string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Error callback failed")
		}
	}()
	cb(msg)
}

// GetLatest returns the most recent snapshot, or nil when none has been
// collected yet.
func (c *Collector) GetLatest() *Snapshot {
	return c.ring.Latest()
}

// GetHistory returns retained snapshots oldest first, optionally
// filtered to the last lastSeconds of data and truncated to the last
// lastN entries. Zero disables a filter.
func (c *Collector) GetHistory(lastN int, lastSeconds float64) []*Snapshot {
	return c.ring.Window(lastN, lastSeconds)
}

// BufferSize returns the number of retained snapshots.
func (c *Collector) BufferSize() int {
	return c.ring.Size()
}

// ClearBuffer drops all retained snapshots.
func (c *Collector) ClearBuffer() {
	c.ring.Clear()
	logger.Info().Msg("History buffer cleared")
}

// GetStatus returns the externally visible collector state.
func (c *Collector) GetStatus() Status {
	c.mu.Lock()
	running := c.running
	startTime := c.startTime
	c.mu.Unlock()

	uptime := 0.0
	if !startTime.IsZero() {
		uptime = time.Since(startTime).Seconds()
	}

	return Status{
		Running:          running,
		SamplesCollected: c.samplesCollected.Load(),
		ErrorsCount:      c.errorsCount.Load(),
		BufferSize:       c.ring.Size(),
		BufferMax:        c.ring.Capacity(),
		SampleRateHz:     c.cfg.SampleRateHz,
		UptimeSeconds:    uptime,
		Points:           c.currentPoints(),
	}
}

// FormatCurrentReadings renders the latest snapshot as a short,
// human-readable block for the interactive shell.
func (c *Collector) FormatCurrentReadings() string {
	snapshot := c.GetLatest()
	if snapshot == nil {
		return "No data available"
	}

	names := make([]string, 0, len(snapshot.Values))
	for name := range snapshot.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Readings at %s:\n", snapshot.Timestamp.Format("15:04:05"))
	for _, name := range names {
		value := snapshot.Values[name]
		if IsMissing(value) {
			fmt.Fprintf(&b, "  %s: ERROR\n", name)
			continue
		}
		fmt.Fprintf(&b, "  %s: %.3f\n", name, value)
	}

	return strings.TrimRight(b.String(), "\n")
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
