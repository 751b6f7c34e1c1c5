package catalog

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"

	"papertrade/internal/schema"
	"papertrade/pkg/exception"
)

// Catalog holds the tradable instruments. Each entry is replaced atomically so readers never
// observe a half-written price; the index itself only changes when instruments are added.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*atomic.Pointer[schema.Instrument]
	order   []string
}

// New creates a catalog seeded with the given instruments.
func New(instruments ...schema.Instrument) (*Catalog, error) {
	c := &Catalog{entries: make(map[string]*atomic.Pointer[schema.Instrument], len(instruments))}
	for _, inst := range instruments {
		if err := c.Add(inst); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Add registers an instrument, or replaces it if the symbol already exists.
func (c *Catalog) Add(inst schema.Instrument) error {
	if inst.Symbol == "" {
		return errors.Wrap(exception.ErrInvalidArgument, "catalog add: empty symbol")
	}
	if inst.Price.Sign() <= 0 {
		return errors.Wrap(exception.ErrInvalidPrice, "catalog add").With("symbol", inst.Symbol)
	}
	if inst.PrevPrice.IsZero() {
		inst.PrevPrice = inst.Price
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[inst.Symbol]; ok {
		entry.Store(&inst)
		return nil
	}
	entry := &atomic.Pointer[schema.Instrument]{}
	entry.Store(&inst)
	c.entries[inst.Symbol] = entry
	c.order = append(c.order, inst.Symbol)
	sort.Strings(c.order)
	return nil
}

func (c *Catalog) entry(symbol string) *atomic.Pointer[schema.Instrument] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[symbol]
}

// Instrument returns the instrument for a symbol.
func (c *Catalog) Instrument(symbol string) (schema.Instrument, bool) {
	entry := c.entry(symbol)
	if entry == nil {
		return schema.Instrument{}, false
	}
	return *entry.Load(), true
}

// Price returns the current price of an active instrument.
func (c *Catalog) Price(symbol string) (decimal.Decimal, error) {
	inst, ok := c.Instrument(symbol)
	if !ok || !inst.Active {
		return decimal.Decimal{}, errors.Wrap(exception.ErrInstrumentUnavailable, "catalog price").With("symbol", symbol)
	}
	return inst.Price, nil
}

// ListActive returns the active instruments sorted by symbol.
func (c *Catalog) ListActive() []schema.Instrument {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]schema.Instrument, 0, len(c.order))
	for _, symbol := range c.order {
		inst := *c.entries[symbol].Load()
		if inst.Active {
			out = append(out, inst)
		}
	}
	return out
}

// UpdatePrice replaces an instrument's price and derives the change from the previous price.
func (c *Catalog) UpdatePrice(symbol string, price decimal.Decimal, at time.Time) (schema.Instrument, error) {
	if price.Sign() <= 0 {
		return schema.Instrument{}, errors.Wrap(exception.ErrInvalidPrice, "catalog update").With("symbol", symbol)
	}
	entry := c.entry(symbol)
	if entry == nil {
		return schema.Instrument{}, errors.Wrap(exception.ErrInstrumentUnavailable, "catalog update").With("symbol", symbol)
	}
	for {
		current := entry.Load()
		next := *current
		next.PrevPrice = current.Price
		next.Price = price
		next.Change = price.Sub(current.Price)
		next.ChangePercent = decimal.Zero
		if current.Price.Sign() > 0 {
			next.ChangePercent = next.Change.Div(current.Price).Mul(decimal.NewFromInt(100)).Round(2)
		}
		next.UpdatedAt = at
		if entry.CompareAndSwap(current, &next) {
			return next, nil
		}
	}
}

// SetActive toggles whether an instrument can be traded.
func (c *Catalog) SetActive(symbol string, active bool) error {
	entry := c.entry(symbol)
	if entry == nil {
		return errors.Wrap(exception.ErrInstrumentUnavailable, "catalog set active").With("symbol", symbol)
	}
	for {
		current := entry.Load()
		next := *current
		next.Active = active
		if entry.CompareAndSwap(current, &next) {
			return nil
		}
	}
}
