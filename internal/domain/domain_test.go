package domain

import (
	"encoding/json"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"
)

func TestStatementStatus_Tone(t *testing.T) {
	tests := []struct {
		status StatementStatus
		tone   Tone
		final  bool
	}{
		{StatementPending, ToneNeutral, false},
		{StatementProcessing, ToneInfo, false},
		{StatementCompleted, ToneSuccess, true},
		{StatementFailed, ToneDanger, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			require.Equal(t, tt.tone, tt.status.Tone())
			require.Equal(t, tt.final, tt.status.Terminal())
		})
	}
	require.Panics(t, func() { StatementStatus("archived").Tone() })
}

func TestBillStatus_Tone(t *testing.T) {
	require.Equal(t, ToneNeutral, BillDraft.Tone())
	require.Equal(t, ToneWarning, BillUnpaid.Tone())
	require.Equal(t, ToneSuccess, BillPaid.Tone())
	require.Equal(t, ToneDanger, BillOverdue.Tone())
}

func TestMissingStatusDecodesAsNeutral(t *testing.T) {
	var st Statement
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s1","fileName":"a.pdf"}`), &st))
	require.Empty(t, st.Status)
	require.NotPanics(t, func() { st.Status.Tone() })
	require.Equal(t, ToneNeutral, st.Status.Tone())
	require.False(t, st.Status.Terminal())

	var b Bill
	require.NoError(t, json.Unmarshal([]byte(`{"id":"b1","vendor":"Acme"}`), &b))
	require.Equal(t, ToneNeutral, b.Status.Tone())
}

func TestUnknownValuesAreRejected(t *testing.T) {
	var st Statement
	require.Error(t, json.Unmarshal([]byte(`{"id":"s1","status":"archived"}`), &st))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s1","status":"processing"}`), &st))
	require.Equal(t, StatementProcessing, st.Status)

	var b Bill
	require.Error(t, json.Unmarshal([]byte(`{"id":"b1","status":"void"}`), &b))

	var m Member
	require.Error(t, json.Unmarshal([]byte(`{"id":"m1","role":"superuser"}`), &m))

	var a Account
	require.Error(t, json.Unmarshal([]byte(`{"id":"a1","type":"brokerage"}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a1","type":"credit_card"}`), &a))
	require.Equal(t, AccountTypeCreditCard, a.Type)
}

func TestParseAccountType(t *testing.T) {
	tests := []struct {
		in      string
		want    AccountType
		wantErr bool
	}{
		{"bank", AccountTypeBank, false},
		{"bank_account", AccountTypeBank, false},
		{"card", AccountTypeCreditCard, false},
		{"credit_card", AccountTypeCreditCard, false},
		{"Bank", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAccountType(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got)
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025-01-01..2025-01-31")
	require.NoError(t, err)
	require.Equal(t, civil.Date{Year: 2025, Month: 1, Day: 1}, p.Start)
	require.Equal(t, civil.Date{Year: 2025, Month: 1, Day: 31}, p.End)
	require.Equal(t, "2025-01-01..2025-01-31", p.String())

	for _, bad := range []string{"2025-01-01", "2025-02-01..2025-01-01", "2025-13-01..2025-12-31", "a..b"} {
		_, err := ParsePeriod(bad)
		require.Error(t, err, bad)
	}
}

func TestAccountInput_Validate(t *testing.T) {
	ok := AccountInput{Name: "Chase Checking", Type: AccountTypeBank, LastFour: "1234"}
	require.NoError(t, ok.Validate())

	for name, in := range map[string]AccountInput{
		"no name":      {Type: AccountTypeBank},
		"no type":      {Name: "x"},
		"short digits": {Name: "x", Type: AccountTypeBank, LastFour: "123"},
		"letters":      {Name: "x", Type: AccountTypeBank, LastFour: "12a4"},
	} {
		require.Error(t, in.Validate(), name)
	}
}
