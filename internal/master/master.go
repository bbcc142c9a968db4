package master

import (
	"errors"
	"math"
	"strings"
)

var (
	// ErrEmptyName is returned when a product name is blank after trimming.
	ErrEmptyName = errors.New("product name is required")
	// ErrNegativeAmount is returned when a price or cost is below zero or not finite.
	ErrNegativeAmount = errors.New("prices and costs must be numbers greater than or equal to 0")
)

// Entry holds the per-unit price and cost defaults of one product.
type Entry struct {
	Name            string
	UnitPrice       float64
	MaterialCost    float64
	OutsourcingCost float64
	// WeightUnitCost is the material cost per kg for weight-priced products.
	WeightUnitCost float64
}

// Validate checks the name and that every amount is a finite, non-negative number.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	for _, v := range []float64{e.UnitPrice, e.MaterialCost, e.OutsourcingCost, e.WeightUnitCost} {
		if !validAmount(v) {
			return ErrNegativeAmount
		}
	}
	return nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

// Master is a keyed lookup of product name to Entry. Keys are exact,
// case-sensitive names; registration order is kept for display.
type Master struct {
	entries map[string]Entry
	order   []string
}

// New returns an empty Master.
func New() *Master {
	return &Master{entries: make(map[string]Entry)}
}

// Register inserts or overwrites the entry for name.
func (m *Master) Register(name string, unitPrice, materialCost, outsourcingCost float64) error {
	return m.RegisterEntry(Entry{
		Name:            name,
		UnitPrice:       unitPrice,
		MaterialCost:    materialCost,
		OutsourcingCost: outsourcingCost,
	})
}

// RegisterEntry inserts or overwrites e, keyed by its trimmed name.
func (m *Master) RegisterEntry(e Entry) error {
	_, err := m.upsert(e)
	return err
}

func (m *Master) upsert(e Entry) (bool, error) {
	e.Name = strings.TrimSpace(e.Name)
	if err := e.Validate(); err != nil {
		return false, err
	}

	_, exists := m.entries[e.Name]
	if !exists {
		m.order = append(m.order, e.Name)
	}
	m.entries[e.Name] = e
	return !exists, nil
}

// Lookup returns the entry for name. A miss is expected for ad hoc products.
func (m *Master) Lookup(name string) (Entry, bool) {
	e, ok := m.entries[strings.TrimSpace(name)]
	return e, ok
}

// Len returns the number of entries.
func (m *Master) Len() int {
	return len(m.order)
}

// Entries returns a copy of every entry in registration order.
func (m *Master) Entries() []Entry {
	out := make([]Entry, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.entries[name])
	}
	return out
}

// Names returns product names in registration order.
func (m *Master) Names() []string {
	return append([]string(nil), m.order...)
}

func (m *Master) clone() *Master {
	c := &Master{
		entries: make(map[string]Entry, len(m.entries)),
		order:   append([]string(nil), m.order...),
	}
	for k, v := range m.entries {
		c.entries[k] = v
	}
	return c
}
