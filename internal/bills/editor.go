// Package bills lists and edits vendor bills. Line-item and total arithmetic uses
// exact decimals.
package bills

import (
	"fmt"

	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/shopspring/decimal"
)

// Editor edits a copy of a bill and keeps its figures consistent:
// amount = units * rate for every edited item, subtotal = sum of amounts after any
// item change, total = subtotal + tax + fees after any change.
type Editor struct {
	bill  domain.Bill
	dirty bool
}

// NewEditor starts editing a copy of b. The loaded figures are kept as they are.
func NewEditor(b domain.Bill) *Editor {
	b.Items = append([]domain.LineItem(nil), b.Items...)
	return &Editor{bill: b}
}

// Bill returns a copy of the edited bill.
func (e *Editor) Bill() domain.Bill {
	b := e.bill
	b.Items = append([]domain.LineItem(nil), e.bill.Items...)
	return b
}

// Dirty reports whether anything was edited.
func (e *Editor) Dirty() bool { return e.dirty }

// SetUnits changes an item's units.
func (e *Editor) SetUnits(i int, units decimal.Decimal) error {
	it, err := e.item(i)
	if err != nil {
		return err
	}
	it.Units = units
	e.itemChanged(it)
	return nil
}

// SetRate changes an item's rate.
func (e *Editor) SetRate(i int, rate decimal.Decimal) error {
	it, err := e.item(i)
	if err != nil {
		return err
	}
	it.Rate = rate
	e.itemChanged(it)
	return nil
}

// SetDescription changes an item's text. Figures are unaffected.
func (e *Editor) SetDescription(i int, desc string) error {
	it, err := e.item(i)
	if err != nil {
		return err
	}
	it.Description = desc
	e.dirty = true
	return nil
}

// AddItem appends a line and returns its index.
func (e *Editor) AddItem(desc string, units, rate decimal.Decimal) int {
	e.bill.Items = append(e.bill.Items, domain.LineItem{Description: desc, Units: units, Rate: rate})
	e.itemChanged(&e.bill.Items[len(e.bill.Items)-1])
	return len(e.bill.Items) - 1
}

// RemoveItem deletes a line.
func (e *Editor) RemoveItem(i int) error {
	if _, err := e.item(i); err != nil {
		return err
	}
	e.bill.Items = append(e.bill.Items[:i:i], e.bill.Items[i+1:]...)
	e.resum()
	return nil
}

// SetTax changes the tax and recomputes the total.
func (e *Editor) SetTax(v decimal.Decimal) {
	e.bill.Tax = v
	e.retotal()
}

// SetFees changes the fees and recomputes the total.
func (e *Editor) SetFees(v decimal.Decimal) {
	e.bill.Fees = v
	e.retotal()
}

// SetSubtotal overrides the subtotal and recomputes the total. The next item change
// sums the items again.
func (e *Editor) SetSubtotal(v decimal.Decimal) {
	e.bill.Subtotal = v
	e.retotal()
}

func (e *Editor) item(i int) (*domain.LineItem, error) {
	if i < 0 || i >= len(e.bill.Items) {
		return nil, fmt.Errorf("line %d out of range (bill has %d lines)", i+1, len(e.bill.Items))
	}
	return &e.bill.Items[i], nil
}

func (e *Editor) itemChanged(it *domain.LineItem) {
	it.Amount = it.Units.Mul(it.Rate)
	e.resum()
}

func (e *Editor) resum() {
	sum := decimal.Zero
	for _, it := range e.bill.Items {
		sum = sum.Add(it.Amount)
	}
	e.bill.Subtotal = sum
	e.retotal()
}

func (e *Editor) retotal() {
	e.bill.Total = e.bill.Subtotal.Add(e.bill.Tax).Add(e.bill.Fees)
	e.dirty = true
}
