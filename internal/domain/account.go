package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// AccountType distinguishes bank accounts from credit cards.
type AccountType string

const (
	AccountTypeBank       AccountType = "bank_account"
	AccountTypeCreditCard AccountType = "credit_card"
)

// ParseAccountType accepts the wire names plus the short CLI aliases "bank" and "card".
func ParseAccountType(s string) (AccountType, error) {
	switch s {
	case string(AccountTypeBank), "bank":
		return AccountTypeBank, nil
	case string(AccountTypeCreditCard), "card":
		return AccountTypeCreditCard, nil
	default:
		return "", fmt.Errorf("unknown account type %q", s)
	}
}

// Label is the human name of the type.
func (t AccountType) Label() string {
	switch t {
	case AccountTypeBank:
		return "Bank account"
	case AccountTypeCreditCard:
		return "Credit card"
	default:
		return string(t)
	}
}

// UnmarshalJSON rejects account types this client does not know.
func (t *AccountType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseAccountType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Account is a bank account or credit card owned by a company.
type Account struct {
	ID          string      `json:"id"`
	CompanyID   string      `json:"companyId"`
	Name        string      `json:"name"`
	Institution string      `json:"institution"`
	LastFour    string      `json:"lastFour,omitempty"`
	Type        AccountType `json:"type"`

	// LinkRef points at the link-provider item this account was imported from, if any.
	LinkRef *LinkRef `json:"linkRef,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LinkRef references a link-provider integration.
type LinkRef struct {
	ItemID    string `json:"itemId"`
	AccountID string `json:"accountId"`
}

// AccountInput carries the editable fields of an account.
type AccountInput struct {
	CompanyID   string      `json:"companyId"`
	Name        string      `json:"name"`
	Institution string      `json:"institution"`
	LastFour    string      `json:"lastFour,omitempty"`
	Type        AccountType `json:"type"`
}

// Validate checks the fields a create or update form requires.
func (in AccountInput) Validate() error {
	if in.Name == "" {
		return fmt.Errorf("account name is required")
	}
	if in.Type != AccountTypeBank && in.Type != AccountTypeCreditCard {
		return fmt.Errorf("account type is required")
	}
	if in.LastFour != "" {
		if len(in.LastFour) != 4 {
			return fmt.Errorf("last four digits must be exactly 4 characters")
		}
		for _, r := range in.LastFour {
			if r < '0' || r > '9' {
				return fmt.Errorf("last four digits must be numeric")
			}
		}
	}
	return nil
}
