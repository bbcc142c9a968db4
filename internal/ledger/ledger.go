package ledger

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAlreadyOrdered is returned when an order is placed twice for one record.
	ErrAlreadyOrdered = errors.New("order already placed for this record")
	// ErrNotEditing is returned when an update is submitted with no record in edit mode.
	ErrNotEditing = errors.New("no record is being edited")
	// ErrStaleEdit is returned when an update names a record other than the
	// one in edit mode, e.g. after an earlier record was removed.
	ErrStaleEdit = errors.New("the record being edited has moved; open it for editing again")
)

// IndexError reports an index outside the record list.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("record index %d out of range: %d records", e.Index, e.Len)
}

// Ledger is the insertion-ordered record list of one session plus the index
// of the single record in edit mode.
type Ledger struct {
	records []Record
	editing int
}

// New returns an empty Ledger.
func New() *Ledger {
	return &Ledger{editing: -1}
}

// Append adds r at the end and returns its index. Duplicates are allowed.
func (l *Ledger) Append(r Record) int {
	l.records = append(l.records, r)
	return len(l.records) - 1
}

// update replaces the record at i and leaves edit mode.
func (l *Ledger) update(i int, r Record) error {
	if err := l.check(i); err != nil {
		return err
	}
	l.records[i] = r
	l.editing = -1
	return nil
}

// Remove deletes the record at i. Later records shift down by one and the
// edit index follows them; editing the removed record is cancelled.
func (l *Ledger) Remove(i int) error {
	if err := l.check(i); err != nil {
		return err
	}
	l.records = append(l.records[:i], l.records[i+1:]...)

	switch {
	case l.editing == i:
		l.editing = -1
	case l.editing > i:
		l.editing--
	}
	return nil
}

// BeginEdit puts the record at i in edit mode, replacing any previous one.
func (l *Ledger) BeginEdit(i int) error {
	if err := l.check(i); err != nil {
		return err
	}
	l.editing = i
	return nil
}

// CancelEdit leaves edit mode.
func (l *Ledger) CancelEdit() {
	l.editing = -1
}

// Editing returns the index of the record in edit mode.
func (l *Ledger) Editing() (int, bool) {
	return l.editing, l.editing >= 0
}

// UpdateEditing replaces the record in edit mode, which must be at i. The
// order status of the old record is kept.
func (l *Ledger) UpdateEditing(i int, r Record) error {
	editing, ok := l.Editing()
	if !ok {
		return ErrNotEditing
	}
	if i != editing {
		return ErrStaleEdit
	}
	old := l.records[editing]
	r.OrderPlaced, r.OrderDate = old.OrderPlaced, old.OrderDate
	return l.update(editing, r)
}

// MarkOrdered records that an order was placed for the record at i. It can
// only happen once per record.
func (l *Ledger) MarkOrdered(i int, on time.Time) error {
	if err := l.check(i); err != nil {
		return err
	}
	if l.records[i].OrderPlaced {
		return ErrAlreadyOrdered
	}
	l.records[i].OrderPlaced = true
	l.records[i].OrderDate = &on
	return nil
}

// At returns the record at i.
func (l *Ledger) At(i int) (Record, error) {
	if err := l.check(i); err != nil {
		return Record{}, err
	}
	return l.records[i], nil
}

// Records returns a deep copy of the list.
func (l *Ledger) Records() []Record {
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = r.clone()
	}
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Clear drops every record and leaves edit mode.
func (l *Ledger) Clear() {
	l.records = nil
	l.editing = -1
}

func (l *Ledger) check(i int) error {
	if i < 0 || i >= len(l.records) {
		return &IndexError{Index: i, Len: len(l.records)}
	}
	return nil
}
