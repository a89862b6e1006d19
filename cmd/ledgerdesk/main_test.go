package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/dvloznov/ledgerdesk/internal/bills"
	"github.com/dvloznov/ledgerdesk/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParsePermissions(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Permissions
		wantErr bool
	}{
		{in: "none", want: domain.Permissions{}},
		{in: "view-statements", want: domain.Permissions{ViewStatements: true}},
		{in: "manage-bills, view-reports", want: domain.Permissions{ManageBills: true, ViewReports: true}},
		{in: "fly", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePermissions(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestFormatPermissions_RoundTrip(t *testing.T) {
	p := domain.Permissions{UploadStatements: true, ManageMembers: true}
	s := formatPermissions(p)
	require.Equal(t, "manage-members,upload-statements", s)

	back, err := parsePermissions(s)
	require.NoError(t, err)
	require.Equal(t, p, back)
	require.Equal(t, "none", formatPermissions(domain.Permissions{}))
}

func TestAskYesNo(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := askYesNo(bufio.NewReader(strings.NewReader(tt.input)), &out, "Delete it?")
		require.Equal(t, tt.want, got, "input %q", tt.input)
		require.Equal(t, "Delete it? [y/N]: ", out.String())
	}
}

func TestApplyBillEdits(t *testing.T) {
	e := bills.NewEditor(domain.Bill{
		ID: "b1",
		Items: []domain.LineItem{
			{Description: "Hosting", Units: decimal.NewFromInt(1), Rate: decimal.NewFromInt(100), Amount: decimal.NewFromInt(100)},
		},
		Subtotal: decimal.NewFromInt(100),
		Total:    decimal.NewFromInt(100),
	})

	err := applyBillEdits(e, billEdits{item: 1, units: "3", add: "Support;2;25.50", tax: "10"})
	require.NoError(t, err)

	b := e.Bill()
	require.Len(t, b.Items, 2)
	require.True(t, decimal.NewFromInt(300).Equal(b.Items[0].Amount))
	require.True(t, decimal.RequireFromString("51").Equal(b.Items[1].Amount))
	require.True(t, decimal.RequireFromString("351").Equal(b.Subtotal))
	require.True(t, decimal.RequireFromString("361").Equal(b.Total))
	require.True(t, e.Dirty())
}

func TestApplyBillEdits_Invalid(t *testing.T) {
	e := bills.NewEditor(domain.Bill{ID: "b1"})
	require.Error(t, applyBillEdits(e, billEdits{add: "missing parts"}))
	require.Error(t, applyBillEdits(e, billEdits{tax: "ten"}))
	require.Error(t, applyBillEdits(e, billEdits{item: 4, units: "1"}))
	require.Error(t, applyBillEdits(e, billEdits{remove: 1}))
}

func TestJoinNames(t *testing.T) {
	require.Equal(t, "list|create", joinNames([]string{"list", "create"}))
}
