package domain

import (
	"encoding/json"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// BillStatus is the payment state of a bill.
type BillStatus string

const (
	BillDraft   BillStatus = "draft"
	BillUnpaid  BillStatus = "unpaid"
	BillPaid    BillStatus = "paid"
	BillOverdue BillStatus = "overdue"
)

// ParseBillStatus rejects unknown statuses.
func ParseBillStatus(s string) (BillStatus, error) {
	switch st := BillStatus(s); st {
	case BillDraft, BillUnpaid, BillPaid, BillOverdue:
		return st, nil
	default:
		return "", fmt.Errorf("unknown bill status %q", s)
	}
}

// Tone maps a bill status to its badge tone. A missing status shows as neutral.
func (s BillStatus) Tone() Tone {
	switch s {
	case "", BillDraft:
		return ToneNeutral
	case BillUnpaid:
		return ToneWarning
	case BillPaid:
		return ToneSuccess
	case BillOverdue:
		return ToneDanger
	}
	panic(fmt.Sprintf("bill status %q has no tone", string(s)))
}

// UnmarshalJSON rejects unknown statuses.
func (s *BillStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseBillStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// LineItem is one row of a bill.
type LineItem struct {
	ID          string          `json:"id,omitempty"`
	Description string          `json:"description"`
	Units       decimal.Decimal `json:"units"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// Bill is a vendor bill or invoice tracked by the company.
type Bill struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"companyId"`
	Vendor    string          `json:"vendor"`
	Number    string          `json:"number,omitempty"`
	IssueDate civil.Date      `json:"issueDate"`
	DueDate   civil.Date      `json:"dueDate"`
	Currency  string          `json:"currency"`
	Status    BillStatus      `json:"status"`
	Items     []LineItem      `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Fees      decimal.Decimal `json:"fees"`
	Total     decimal.Decimal `json:"total"`
}
