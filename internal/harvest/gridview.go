package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avolkov/inventory-harvester/internal/js"
	"github.com/go-rod/rod"
)

// gridViewTimeout bounds each individual page evaluation so a wedged
// renderer cannot stall the harvest loop.
const gridViewTimeout = 10 * time.Second

// GridView is the rod-backed View over the product grid. It assumes
// the page already shows the loaded product table.
type GridView struct {
	page *rod.Page
}

func NewGridView(page *rod.Page) *GridView {
	return &GridView{page: page}
}

// WaitReady blocks until at least one product card is rendered.
func (v *GridView) WaitReady(ctx context.Context, timeout time.Duration) error {
	p := v.page.Context(ctx).Timeout(timeout)
	if err := p.WaitElementsMoreThan(".grid > div", 0); err != nil {
		return fmt.Errorf("product grid did not appear: %w", err)
	}
	return nil
}

func (v *GridView) Rows(ctx context.Context) ([]Row, error) {
	p := v.page.Context(ctx).Timeout(gridViewTimeout)
	res, err := p.Eval(js.EXTRACT_ROWS)
	if err != nil {
		return nil, fmt.Errorf("extracting rows: %w", err)
	}
	var rows []Row
	if err := json.Unmarshal([]byte(res.Value.Str()), &rows); err != nil {
		return nil, fmt.Errorf("decoding extracted rows: %w", err)
	}
	return rows, nil
}

func (v *GridView) Count(ctx context.Context) (int, error) {
	p := v.page.Context(ctx).Timeout(gridViewTimeout)
	res, err := p.Eval(js.COUNT_ROWS)
	if err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return res.Value.Int(), nil
}

func (v *GridView) LoadMore(ctx context.Context) error {
	p := v.page.Context(ctx).Timeout(gridViewTimeout)
	if _, err := p.Eval(js.SCROLL_BOTTOM); err != nil {
		return fmt.Errorf("scrolling to bottom: %w", err)
	}
	return nil
}
