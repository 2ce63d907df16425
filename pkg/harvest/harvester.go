package harvest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"artscrape/pkg/logger"
)

var (
	// ErrInvalidQuota is returned when the requested quota is not positive
	ErrInvalidQuota = errors.New("quota must be positive")

	// ErrSourceExhausted is returned when the idle bound is reached without
	// the source producing anything new
	ErrSourceExhausted = errors.New("source stopped producing new references")
)

// Result is the outcome of one harvest
type Result struct {
	// References in the order they were first seen
	References []string
	Found      int
	Skipped    int
	Target     int
}

// Progress is reported after every round
type Progress struct {
	Found   int
	Skipped int
	Target  int
}

// Option configures a Harvester
type Option func(*Harvester)

// WithLogger sets the logger used for per-round diagnostics
func WithLogger(l logger.Logger) Option {
	return func(h *Harvester) {
		h.logger = l
	}
}

// WithIdleRounds stops a harvest with ErrSourceExhausted after n consecutive
// rounds without progress. Zero keeps harvesting until ctx is done.
func WithIdleRounds(n int) Option {
	return func(h *Harvester) {
		h.idleRounds = n
	}
}

// WithBaseURL overrides the endpoint search targets are built on
func WithBaseURL(base string) Option {
	return func(h *Harvester) {
		h.baseURL = base
	}
}

// WithProgress registers a callback invoked after each round
func WithProgress(fn func(Progress)) Option {
	return func(h *Harvester) {
		h.onProgress = fn
	}
}

// Harvester collects unique references through a Driver
type Harvester struct {
	driver      Driver
	settleDelay time.Duration
	baseURL     string
	idleRounds  int
	logger      logger.Logger
	onProgress  func(Progress)

	// sleep waits out the settle delay; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Harvester. settleDelay is waited after every scroll and
// every successful expand.
func New(driver Driver, settleDelay time.Duration, opts ...Option) *Harvester {
	h := &Harvester{
		driver:      driver,
		settleDelay: settleDelay,
		baseURL:     DefaultBaseURL,
		logger:      logger.GetLogger(),
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Harvest is shorthand for New(driver, settleDelay, opts...).Harvest
func Harvest(ctx context.Context, driver Driver, settleDelay time.Duration, quota int, spec *SearchSpec, opts ...Option) (*Result, error) {
	return New(driver, settleDelay, opts...).Harvest(ctx, quota, spec)
}

// state holds the harvest counters. The target is derived, never stored.
type state struct {
	requested int
	found     int
	skipped   int
}

func (s *state) target() int    { return s.requested + s.skipped }
func (s *state) handled() int   { return s.found + s.skipped }
func (s *state) complete() bool { return s.handled() >= s.target() }

// Harvest navigates to the search target for spec and collects quota unique
// references. On error the references gathered so far are still returned.
func (h *Harvester) Harvest(ctx context.Context, quota int, spec *SearchSpec) (*Result, error) {
	if quota <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuota, quota)
	}

	st := &state{requested: quota}
	refs := NewReferenceSet()
	target := BuildTarget(h.baseURL, spec)
	log := h.logger.WithFields(map[string]interface{}{
		"target": target,
		"quota":  quota,
	})

	if err := ctx.Err(); err != nil {
		return h.result(st, refs), err
	}
	if err := h.driver.Navigate(ctx, target); err != nil {
		return h.result(st, refs), fmt.Errorf("failed to navigate to %s: %w", target, err)
	}
	log.Debug("Harvest started")

	idle := 0
	for round := 1; !st.complete(); round++ {
		before := st.handled()

		if err := h.round(ctx, st, refs, log); err != nil {
			return h.result(st, refs), err
		}

		if st.handled() == before {
			idle++
			if h.idleRounds > 0 && idle >= h.idleRounds {
				log.WithField("rounds", round).Warn("No new references, giving up")
				return h.result(st, refs), ErrSourceExhausted
			}
		} else {
			idle = 0
		}

		if h.onProgress != nil {
			h.onProgress(Progress{Found: st.found, Skipped: st.skipped, Target: st.target()})
		}
		log.DebugWithFields("Round finished", map[string]interface{}{
			"round":   round,
			"found":   st.found,
			"skipped": st.skipped,
		})
	}

	log.WithFields(map[string]interface{}{
		"found":   st.found,
		"skipped": st.skipped,
	}).Info("Harvest completed")

	return h.result(st, refs), nil
}

// round scrolls once, then expands each pending thumbnail and scans the
// enlarged candidates it reveals
func (h *Harvester) round(ctx context.Context, st *state, refs *ReferenceSet, log logger.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := h.driver.ScrollToBottom(ctx); err != nil {
		return fmt.Errorf("failed to scroll: %w", err)
	}
	if err := h.sleep(ctx, h.settleDelay); err != nil {
		return err
	}

	thumbs, err := h.driver.Thumbnails(ctx)
	if err != nil {
		return fmt.Errorf("failed to list thumbnails: %w", err)
	}

	for i, thumb := range pending(thumbs, st.handled(), st.target()) {
		if st.complete() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome := thumb.Expand(ctx)
		if !outcome.Expanded {
			log.WithError(outcome.Reason).DebugWithFields("Thumbnail skipped", map[string]interface{}{
				"index": st.handled() + i,
			})
			continue
		}
		if err := h.sleep(ctx, h.settleDelay); err != nil {
			return err
		}

		candidates, err := h.driver.EnlargedCandidates(ctx)
		if err != nil {
			log.WithError(err).Warn("Failed to list enlarged candidates")
			continue
		}
		scan(candidates, st, refs)
	}

	return nil
}

// scan walks candidates until the target is met. A duplicate extends the
// target by one; an absent or non-absolute reference is ignored.
func scan(candidates []Candidate, st *state, refs *ReferenceSet) {
	for _, c := range candidates {
		if st.complete() {
			return
		}

		ref, ok := c.Reference()
		if !ok {
			continue
		}

		switch {
		case refs.Contains(ref):
			st.skipped++
		case IsAbsolute(ref):
			refs.Add(ref)
			st.found++
		}
	}
}

// pending returns thumbs[from:to] clamped to the available range
func pending(thumbs []Thumbnail, from, to int) []Thumbnail {
	if to > len(thumbs) {
		to = len(thumbs)
	}
	if from >= to {
		return nil
	}
	return thumbs[from:to]
}

func (h *Harvester) result(st *state, refs *ReferenceSet) *Result {
	return &Result{
		References: refs.Snapshot(),
		Found:      st.found,
		Skipped:    st.skipped,
		Target:     st.target(),
	}
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
