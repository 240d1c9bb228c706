package draft

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ledgerbook/internal/ledger"
)

func TestLoad_DebitYAML(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "debit.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "A", d.CustomerKey)
	assert.Equal(t, "2024-06-03", d.Date)
	assert.Equal(t, ledger.Debit, d.TransactionType)
	assert.Equal(t, "", d.Remarks)
	require.Len(t, d.Items, 2)
	assert.Equal(t, "ராகி மாவு (Ragi flour)", d.Items[0].Name)
	assert.Equal(t, "45.50", d.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "2", d.Items[0].Quantity.String())
	assert.Equal(t, "0.5", d.Items[1].Quantity.String())
}

func TestLoad_CreditCUE(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "credit.cue"))
	require.NoError(t, err)

	assert.Equal(t, "B", d.CustomerKey)
	assert.Equal(t, ledger.Credit, d.TransactionType)
	assert.Equal(t, "500", d.CreditAmount.String())
	assert.Equal(t, "UPI", d.Remarks)
	assert.Empty(t, d.Items)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		src      string
	}{
		{
			name:     "debit without items",
			filename: "d.yaml",
			src:      "customer: A\ndate: \"2024-06-03\"\ntype: Debit\n",
		},
		{
			name:     "debit with empty items",
			filename: "d.yaml",
			src:      "customer: A\ndate: \"2024-06-03\"\ntype: Debit\nitems: []\n",
		},
		{
			name:     "credit without amount",
			filename: "c.cue",
			src:      `customer: "A", date: "2024-06-03", type: "Credit"`,
		},
		{
			name:     "zero credit",
			filename: "c.cue",
			src:      `customer: "A", date: "2024-06-03", type: "Credit", amount: 0`,
		},
		{
			name:     "negative price",
			filename: "d.yaml",
			src:      "customer: A\ndate: \"2024-06-03\"\ntype: Debit\nitems:\n  - {name: Rice, unitPrice: -1, quantity: 1}\n",
		},
		{
			name:     "unknown field",
			filename: "d.yaml",
			src:      "customer: A\ndate: \"2024-06-03\"\ntype: Debit\nnote: x\nitems:\n  - {name: Rice, unitPrice: 1, quantity: 1}\n",
		},
		{
			name:     "bad date",
			filename: "d.cue",
			src:      `customer: "A", date: "03-06-2024", type: "Credit", amount: 5`,
		},
		{
			name:     "unknown type",
			filename: "d.cue",
			src:      `customer: "A", date: "2024-06-03", type: "Refund", amount: 5`,
		},
		{
			name:     "malformed yaml",
			filename: "d.yaml",
			src:      "customer: [A\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.filename, []byte(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDraft), "got %v", err)
		})
	}
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse("draft.json", []byte(`{}`))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
