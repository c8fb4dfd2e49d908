package harvest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeView simulates a dynamically-loaded list. The underlying rows
// are fixed; steps holds the visible row count after each LoadMore
// call, so a growth schedule like [5, 12, 12, 12] can be scripted.
type fakeView struct {
	rows    []Row
	visible int
	steps   []int

	loadCalls int
	rowErrs   int
	countErrs int
}

func (v *fakeView) Rows(ctx context.Context) ([]Row, error) {
	if v.rowErrs > 0 {
		v.rowErrs--
		return nil, errors.New("view not rendered")
	}
	n := v.visible
	if n > len(v.rows) {
		n = len(v.rows)
	}
	return v.rows[:n], nil
}

func (v *fakeView) Count(ctx context.Context) (int, error) {
	if v.countErrs > 0 {
		v.countErrs--
		return 0, errors.New("view not rendered")
	}
	return v.visible, nil
}

func (v *fakeView) LoadMore(ctx context.Context) error {
	if v.loadCalls < len(v.steps) {
		v.visible = v.steps[v.loadCalls]
	}
	v.loadCalls++
	return nil
}

func makeRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			ID:     fmt.Sprintf("%d", 1000+i),
			Name:   fmt.Sprintf("Product %d", i),
			Price:  fmt.Sprintf("$%d.50", i+1),
			MassKG: "2.5",
			Score:  "4.2",
		}
	}
	return rows
}

func testOptions() Options {
	return Options{
		StabilityThreshold: 2,
		SettleTimeout:      50 * time.Millisecond,
		PollInterval:       5 * time.Millisecond,
		ViewRetries:        1,
	}
}

func TestRunRespectsRecordCap(t *testing.T) {
	view := &fakeView{
		rows:    makeRows(30),
		visible: 10,
		steps:   []int{20, 30, 30, 30},
	}
	opts := testOptions()
	opts.MaxRecords = 7

	res, err := New(view, opts, zap.NewNop().Sugar()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, TerminationCap, res.Termination)
	require.Len(t, res.Records, 7)
	// First-seen order.
	for i, rec := range res.Records {
		assert.Equal(t, fmt.Sprintf("%d", 1000+i), rec.ID)
	}
	// Cap was satisfied by the initially visible rows, so no scroll
	// should have been needed.
	assert.Zero(t, view.loadCalls)
}

func TestRunCapHitMidScroll(t *testing.T) {
	view := &fakeView{
		rows:    makeRows(30),
		visible: 5,
		steps:   []int{12, 20, 30},
	}
	opts := testOptions()
	opts.MaxRecords = 10

	res, err := New(view, opts, zap.NewNop().Sugar()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, TerminationCap, res.Termination)
	assert.Len(t, res.Records, 10)
}

func TestRunUnboundedCollectsWholeList(t *testing.T) {
	view := &fakeView{
		rows:    makeRows(12),
		visible: 0,
		steps:   []int{5, 12, 12, 12},
	}

	res, err := New(view, testOptions(), zap.NewNop().Sugar()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, TerminationStable, res.Termination)
	require.Len(t, res.Records, 12)
	for i, rec := range res.Records {
		assert.Equal(t, fmt.Sprintf("%d", 1000+i), rec.ID)
	}
	// Growth schedule 0→5, 5→12, 12→12, 12→12: two flat reads at
	// threshold 2 end the run after the fourth scroll/wait cycle.
	assert.Equal(t, 4, view.loadCalls)
	assert.Equal(t, 4, res.Passes)
}

func TestRunStaticListStopsAfterSingleScroll(t *testing.T) {
	view := &fakeView{
		rows:    makeRows(10),
		visible: 10,
		steps:   []int{10, 10, 10},
	}

	res, err := New(view, testOptions(), zap.NewNop().Sugar()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, TerminationStable, res.Termination)
	assert.Len(t, res.Records, 10)
	// Two identical reads (initial and post-scroll) settle it; no
	// second scroll is issued.
	assert.Equal(t, 1, view.loadCalls)
}

func TestRunEmptyStaticList(t *testing.T) {
	view := &fakeView{}

	res, err := New(view, testOptions(), zap.NewNop().Sugar()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, TerminationStable, res.Termination)
	assert.Empty(t, res.Records)
}

func TestRunSkipsMalformedRows(t *testing.T) {
	rows := makeRows(5)
	rows[2].Price = "not-a-price"

	view := &fakeView{rows: rows, visible: 5, steps: []int{5, 5}}

	res, err := New(view, testOptions(), zap.NewNop().Sugar()).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, res.Records, 4)
	assert.Equal(t, 1, res.Skipped)
	for _, rec := range res.Records {
		assert.NotEqual(t, "1002", rec.ID)
	}
}

func TestRunDeduplicatesReRenderedRows(t *testing.T) {
	// The view re-renders all rows on every read; records must not
	// repeat across passes.
	view := &fakeView{
		rows:    makeRows(8),
		visible: 4,
		steps:   []int{8, 8, 8},
	}

	res, err := New(view, testOptions(), zap.NewNop().Sugar()).Run(context.Background())
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, rec := range res.Records {
		assert.False(t, seen[rec.ID], "duplicate record %s", rec.ID)
		seen[rec.ID] = true
	}
	assert.Len(t, res.Records, 8)
}

func TestRunViewUnavailable(t *testing.T) {
	view := &fakeView{rows: makeRows(3), visible: 3, rowErrs: 100}
	opts := testOptions()
	opts.ViewRetries = 2

	_, err := New(view, opts, zap.NewNop().Sugar()).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrViewUnavailable)
}

func TestRunRetriesTransientViewFailures(t *testing.T) {
	// Two failing reads, then the view recovers: the run succeeds.
	view := &fakeView{rows: makeRows(4), visible: 4, steps: []int{4, 4}, rowErrs: 1, countErrs: 1}
	opts := testOptions()
	opts.ViewRetries = 3

	res, err := New(view, opts, zap.NewNop().Sugar()).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Records, 4)
}

func TestRunForcedByPassBudget(t *testing.T) {
	// A list that keeps growing forever, bounded by MaxPasses.
	view := &fakeView{
		rows:    makeRows(100),
		visible: 1,
		steps:   []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
	}
	opts := testOptions()
	opts.MaxPasses = 3

	res, err := New(view, opts, zap.NewNop().Sugar()).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForced)
	assert.Equal(t, TerminationForced, res.Termination)
	// Everything seen before the budget ran out is still returned.
	assert.NotEmpty(t, res.Records)
}

func TestRunForcedByContext(t *testing.T) {
	view := &fakeView{
		rows:    makeRows(50),
		visible: 1,
		steps:   []int{2, 3, 4, 5, 6, 7, 8, 9, 10},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	res, err := New(view, testOptions(), zap.NewNop().Sugar()).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForced)
	assert.Equal(t, TerminationForced, res.Termination)
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, defaultStability, o.StabilityThreshold)
	assert.Equal(t, defaultSettleTimeout, o.SettleTimeout)
	assert.Equal(t, defaultViewRetries, o.ViewRetries)
	assert.Equal(t, defaultMaxPasses, o.MaxPasses)

	// A threshold of 1 would allow false termination on transient lag.
	o = Options{StabilityThreshold: 1}.withDefaults()
	assert.GreaterOrEqual(t, o.StabilityThreshold, 2)
}
