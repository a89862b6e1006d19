package bills

import (
	"math/rand"
	"testing"

	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireDecimal(t *testing.T, want, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	require.Truef(t, want.Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func sampleBill() domain.Bill {
	return domain.Bill{
		ID:     "b1",
		Vendor: "Acme Hosting",
		Status: domain.BillUnpaid,
		Items: []domain.LineItem{
			{Description: "Servers", Units: d("2"), Rate: d("49.50"), Amount: d("99.00")},
			{Description: "Support", Units: d("1.5"), Rate: d("80"), Amount: d("120")},
		},
		Subtotal: d("219.00"),
		Tax:      d("21.90"),
		Fees:     d("2.50"),
		Total:    d("243.40"),
	}
}

func TestEditor_SetUnitsAndRate(t *testing.T) {
	e := NewEditor(sampleBill())
	require.False(t, e.Dirty())

	require.NoError(t, e.SetUnits(0, d("3")))
	b := e.Bill()
	requireDecimal(t, d("148.50"), b.Items[0].Amount)
	requireDecimal(t, d("268.50"), b.Subtotal)
	requireDecimal(t, d("292.90"), b.Total)

	require.NoError(t, e.SetRate(1, d("0.1")))
	b = e.Bill()
	requireDecimal(t, d("0.15"), b.Items[1].Amount)
	requireDecimal(t, d("148.65"), b.Subtotal)
	requireDecimal(t, d("173.05"), b.Total)
	require.True(t, e.Dirty())
}

func TestEditor_TaxFeesSubtotal(t *testing.T) {
	e := NewEditor(sampleBill())

	e.SetTax(d("0"))
	requireDecimal(t, d("221.50"), e.Bill().Total)

	e.SetFees(d("10"))
	requireDecimal(t, d("229.00"), e.Bill().Total)

	e.SetSubtotal(d("500"))
	requireDecimal(t, d("510"), e.Bill().Total)

	// An item change sums the items again.
	require.NoError(t, e.SetUnits(1, d("1.5")))
	requireDecimal(t, d("219.00"), e.Bill().Subtotal)
	requireDecimal(t, d("229.00"), e.Bill().Total)
}

func TestEditor_AddRemove(t *testing.T) {
	e := NewEditor(sampleBill())

	i := e.AddItem("Backups", d("4"), d("2.25"))
	require.Equal(t, 2, i)
	requireDecimal(t, d("9"), e.Bill().Items[2].Amount)
	requireDecimal(t, d("228.00"), e.Bill().Subtotal)

	require.NoError(t, e.RemoveItem(0))
	b := e.Bill()
	require.Len(t, b.Items, 2)
	require.Equal(t, "Support", b.Items[0].Description)
	requireDecimal(t, d("129"), b.Subtotal)
	requireDecimal(t, d("153.40"), b.Total)

	require.Error(t, e.RemoveItem(5))
	require.Error(t, e.SetUnits(-1, d("1")))
}

func TestEditor_DoesNotAliasInput(t *testing.T) {
	orig := sampleBill()
	e := NewEditor(orig)
	require.NoError(t, e.SetUnits(0, d("10")))
	requireDecimal(t, d("2"), orig.Items[0].Units)

	out := e.Bill()
	out.Items[0].Description = "changed"
	require.Equal(t, "Servers", e.Bill().Items[0].Description)
}

// TestEditor_InvariantsHoldUnderRandomEdits applies random edits and checks that the
// figures stay consistent after every step.
func TestEditor_InvariantsHoldUnderRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	money := func() decimal.Decimal { return decimal.New(rng.Int63n(100000), -2) }

	e := NewEditor(sampleBill())
	subtotalOverridden := false
	for step := 0; step < 500; step++ {
		n := len(e.Bill().Items)
		switch op := rng.Intn(7); {
		case op == 0 && n > 0:
			require.NoError(t, e.SetUnits(rng.Intn(n), decimal.New(rng.Int63n(1000), -1)))
			subtotalOverridden = false
		case op == 1 && n > 0:
			require.NoError(t, e.SetRate(rng.Intn(n), money()))
			subtotalOverridden = false
		case op == 2:
			e.AddItem("line", decimal.New(rng.Int63n(20), 0), money())
			subtotalOverridden = false
		case op == 3 && n > 0:
			require.NoError(t, e.RemoveItem(rng.Intn(n)))
			subtotalOverridden = false
		case op == 4:
			e.SetTax(money())
		case op == 5:
			e.SetFees(money())
		case op == 6:
			e.SetSubtotal(money())
			subtotalOverridden = true
		}

		b := e.Bill()
		requireDecimal(t, b.Subtotal.Add(b.Tax).Add(b.Fees), b.Total, "step %d", step)
		if !subtotalOverridden && step > 0 {
			sum := decimal.Zero
			for _, it := range b.Items {
				sum = sum.Add(it.Amount)
			}
			requireDecimal(t, sum, b.Subtotal, "step %d", step)
		}
	}
}
