// Package harvest implements incremental collection of records from a
// scrollable, dynamically-loaded list view. The harvester repeatedly
// reads the visible rows, triggers more content to load and waits for
// the row count to grow, until the count stays flat for a configured
// number of consecutive attempts or a record cap is reached.
package harvest

import (
	"context"
	"fmt"
	"time"

	"github.com/avolkov/inventory-harvester/internal/retry"
	"go.uber.org/zap"
)

// View is a handle to the scrollable list being harvested. The caller
// is responsible for having navigated to it already; the harvester
// only reads rows, reads the row count and triggers further loading.
type View interface {
	// Rows returns the raw field strings of every currently visible row.
	Rows(ctx context.Context) ([]Row, error)
	// Count returns the number of currently visible rows.
	Count(ctx context.Context) (int, error)
	// LoadMore triggers the next page of content to load, typically by
	// scrolling the container to its current bottom.
	LoadMore(ctx context.Context) error
}

// Options control a single harvest run.
type Options struct {
	// MaxRecords caps the result size. 0 means unbounded.
	MaxRecords int
	// StabilityThreshold is the number of consecutive unchanged
	// row-count reads required to declare end-of-list. Values below 2
	// are raised to 2: a single flat reading is not proof of the end.
	StabilityThreshold int
	// SettleTimeout bounds the wait for new rows after each load trigger.
	SettleTimeout time.Duration
	// PollInterval is how often the row count is re-read while settling.
	PollInterval time.Duration
	// ViewRetries is how many times a failing view read or load trigger
	// is reattempted before the run aborts with ErrViewUnavailable.
	ViewRetries int
	// MaxPasses bounds the total number of scroll/settle cycles. A run
	// that exhausts it returns what it has along with ErrForced.
	MaxPasses int
}

func (o Options) withDefaults() Options {
	if o.StabilityThreshold < 2 {
		o.StabilityThreshold = defaultStability
	}
	if o.SettleTimeout <= 0 {
		o.SettleTimeout = defaultSettleTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.ViewRetries <= 0 {
		o.ViewRetries = defaultViewRetries
	}
	if o.MaxPasses <= 0 {
		o.MaxPasses = defaultMaxPasses
	}
	return o
}

const (
	defaultStability     = 3
	defaultSettleTimeout = 2 * time.Second
	defaultPollInterval  = 250 * time.Millisecond
	defaultViewRetries   = 3
	defaultMaxPasses     = 1000
	retryDelay           = 500 * time.Millisecond
)

// Termination records how a harvest run ended.
type Termination int

const (
	// TerminationStable means end-of-list was naturally detected.
	TerminationStable Termination = iota
	// TerminationCap means the MaxRecords cap was satisfied.
	TerminationCap
	// TerminationForced means the pass budget or the context expired
	// before the list stabilized.
	TerminationForced
)

func (t Termination) String() string {
	switch t {
	case TerminationStable:
		return "stable"
	case TerminationCap:
		return "cap"
	case TerminationForced:
		return "forced"
	}
	return "unknown"
}

// Result is the outcome of one harvest run. Records preserves the
// order in which rows first became visible; Skipped counts rows that
// failed to parse into a Record.
type Result struct {
	Records     []Record
	Skipped     int
	Passes      int
	Termination Termination
}

// Harvester drives one harvest session over a View. It is strictly
// sequential: one view action at a time, so discovery order matches
// scroll order. Not safe for concurrent use.
type Harvester struct {
	view View
	opts Options
	log  *zap.SugaredLogger
	seen map[string]struct{}
}

func New(view View, opts Options, log *zap.SugaredLogger) *Harvester {
	return &Harvester{
		view: view,
		opts: opts.withDefaults(),
		log:  log,
		seen: make(map[string]struct{}),
	}
}

// Run executes the harvest loop until end-of-list, cap, pass budget or
// context expiry. On a forced termination the returned Result still
// holds everything accumulated and the error wraps ErrForced; a view
// that stays unreadable past the retry budget aborts with
// ErrViewUnavailable.
func (h *Harvester) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	flat := 0
	grown := false

	prev, err := h.count(ctx)
	if err != nil {
		return h.fail(ctx, res, err)
	}

	for pass := 1; ; pass++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Termination = TerminationForced
			return res, fmt.Errorf("%w: %v", ErrForced, ctxErr)
		}
		if pass > h.opts.MaxPasses {
			h.log.Warnw("pass budget exhausted", "passes", h.opts.MaxPasses, "records", len(res.Records))
			res.Termination = TerminationForced
			return res, fmt.Errorf("%w: %d passes without stabilizing", ErrForced, h.opts.MaxPasses)
		}
		res.Passes = pass

		rows, err := h.rows(ctx)
		if err != nil {
			return h.fail(ctx, res, err)
		}
		if h.collect(res, rows) {
			h.log.Infow("record cap reached", "records", len(res.Records))
			res.Termination = TerminationCap
			return res, nil
		}

		if err := h.loadMore(ctx); err != nil {
			return h.fail(ctx, res, err)
		}

		cur, grew, err := h.waitForGrowth(ctx, prev)
		if err != nil {
			res.Termination = TerminationForced
			return res, fmt.Errorf("%w: %v", ErrForced, err)
		}
		h.log.Debugw("settle wait done", "pass", pass, "previous", prev, "current", cur, "grew", grew)
		prev = cur

		if grew {
			grown = true
			flat = 0
			continue
		}

		flat++
		// A settle timeout with no change whatsoever on the very first
		// pass means the list is static; don't keep prodding it.
		if !grown && pass == 1 {
			h.log.Infow("no growth on first pass, list is static", "records", len(res.Records))
			res.Termination = TerminationStable
			return res, nil
		}
		if flat >= h.opts.StabilityThreshold {
			h.log.Infow("end of list detected", "flatReads", flat, "records", len(res.Records), "skipped", res.Skipped)
			res.Termination = TerminationStable
			return res, nil
		}
	}
}

// fail classifies a view failure: when the context is the real cause
// the run ends as a forced termination (the Result still carries what
// was accumulated), otherwise the view error passes through.
func (h *Harvester) fail(ctx context.Context, res *Result, err error) (*Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.Termination = TerminationForced
		return res, fmt.Errorf("%w: %v", ErrForced, ctxErr)
	}
	return res, err
}

// collect parses and appends rows not seen before, preserving first-seen
// order and de-duplicating by record ID. It reports whether the record
// cap has been satisfied; the check runs after every append so the run
// stops as soon as the cap is hit rather than over-collecting.
func (h *Harvester) collect(res *Result, rows []Row) bool {
	for _, row := range rows {
		rec, err := ParseRow(row)
		if err != nil {
			if _, dup := h.seen[skipKey(row)]; !dup {
				h.seen[skipKey(row)] = struct{}{}
				res.Skipped++
				h.log.Warnw("skipping malformed row", "error", err)
			}
			continue
		}
		if _, dup := h.seen[rec.ID]; dup {
			continue
		}
		h.seen[rec.ID] = struct{}{}
		res.Records = append(res.Records, rec)
		if h.opts.MaxRecords > 0 && len(res.Records) >= h.opts.MaxRecords {
			return true
		}
	}
	return false
}

// skipKey identifies a malformed row well enough to count it only once
// across scroll passes even though it never yields a record ID.
func skipKey(r Row) string {
	return "!" + r.ID + "|" + r.Name + "|" + r.Price + "|" + r.MassKG + "|" + r.Score
}

// waitForGrowth polls the row count until it exceeds prev or the settle
// timeout elapses. It only errors when the context is done.
func (h *Harvester) waitForGrowth(ctx context.Context, prev int) (int, bool, error) {
	deadline := time.NewTimer(h.opts.SettleTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(h.opts.PollInterval)
	defer tick.Stop()

	cur := prev
	for {
		select {
		case <-ctx.Done():
			return cur, false, ctx.Err()
		case <-deadline.C:
			return cur, cur > prev, nil
		case <-tick.C:
			n, err := h.count(ctx)
			if err != nil {
				// Transient mid-settle failures are absorbed by the
				// next tick; the surrounding retries already ran.
				h.log.Debugw("count failed while settling", "error", err)
				continue
			}
			cur = n
			if cur > prev {
				return cur, true, nil
			}
		}
	}
}

func (h *Harvester) rows(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := retry.Do(ctx, h.opts.ViewRetries, retryDelay, func() error {
		var rErr error
		rows, rErr = h.view.Rows(ctx)
		return rErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: reading rows: %v", ErrViewUnavailable, err)
	}
	return rows, nil
}

func (h *Harvester) count(ctx context.Context) (int, error) {
	var n int
	err := retry.Do(ctx, h.opts.ViewRetries, retryDelay, func() error {
		var cErr error
		n, cErr = h.view.Count(ctx)
		return cErr
	})
	if err != nil {
		return 0, fmt.Errorf("%w: reading row count: %v", ErrViewUnavailable, err)
	}
	return n, nil
}

func (h *Harvester) loadMore(ctx context.Context) error {
	err := retry.Do(ctx, h.opts.ViewRetries, retryDelay, func() error {
		return h.view.LoadMore(ctx)
	})
	if err != nil {
		return fmt.Errorf("%w: triggering load: %v", ErrViewUnavailable, err)
	}
	return nil
}
