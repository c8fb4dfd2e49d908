// Package nav walks the fixed menu path from the challenge dashboard
// to the loaded product table. The markup is not stable, so every step
// carries a list of candidate locators tried in order; the first
// visible match is clicked.
package nav

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// locator finds an element either by CSS selector or by element text
// (matched case-insensitively against buttons and links).
type locator struct {
	selector string
	text     string
}

type step struct {
	name       string
	candidates []locator
	settle     time.Duration
}

// productPath is the hardcoded route: Menu, Data Management,
// Inventory, View All Products, Load Product Table.
var productPath = []step{
	{
		name: "menu",
		candidates: []locator{
			{text: "Menu"},
			{selector: "[aria-label='Menu']"},
			{selector: ".menu-button"},
			{selector: "button[class*='menu']"},
		},
		settle: 2 * time.Second,
	},
	{
		name: "data management",
		candidates: []locator{
			{text: "Data Management"},
			{selector: "[href*='data']"},
			{selector: "[href*='management']"},
		},
		settle: time.Second,
	},
	{
		name: "inventory",
		candidates: []locator{
			{text: "Inventory"},
			{selector: "[href*='inventory']"},
		},
		settle: time.Second,
	},
	{
		name: "view all products",
		candidates: []locator{
			{text: "View All Products"},
			{text: "View All"},
			{selector: "[href*='product']"},
			{selector: "[href*='view']"},
		},
		settle: 3 * time.Second,
	},
	{
		name: "load product table",
		candidates: []locator{
			{text: "Load Product Table"},
			{text: "Load Table"},
			{text: "Load Products"},
			{text: "Load"},
		},
		settle: 5 * time.Second,
	},
}

// ToProductTable clicks through the menu path. Each candidate gets a
// bounded probe; a step with no clickable candidate fails the whole
// navigation.
func ToProductTable(page *rod.Page, probeTimeout time.Duration, log *zap.SugaredLogger) error {
	for _, st := range productPath {
		if err := clickFirst(page, st, probeTimeout, log); err != nil {
			return fmt.Errorf("navigation step %q: %w", st.name, err)
		}
		if err := page.Timeout(st.settle + 5*time.Second).WaitStable(st.settle); err != nil {
			log.Debugw("stability wait after step", "step", st.name, "error", err)
		}
	}
	return nil
}

func clickFirst(page *rod.Page, st step, probeTimeout time.Duration, log *zap.SugaredLogger) error {
	for _, c := range st.candidates {
		el, err := find(page, c, probeTimeout)
		if err != nil {
			continue
		}
		if visible, err := el.Visible(); err != nil || !visible {
			continue
		}
		if err := el.ScrollIntoView(); err != nil {
			log.Debugw("scroll into view", "step", st.name, "error", err)
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			log.Debugw("click failed, trying next candidate", "step", st.name, "error", err)
			continue
		}
		log.Infow("navigation step done", "step", st.name, "selector", c.selector, "text", c.text)
		return nil
	}
	return fmt.Errorf("no clickable candidate found")
}

func find(page *rod.Page, c locator, timeout time.Duration) (*rod.Element, error) {
	p := page.Timeout(timeout)
	if c.text != "" {
		return p.ElementR("button, a, div[role='button']", "/^"+c.text+"$/i")
	}
	return p.Element(c.selector)
}
