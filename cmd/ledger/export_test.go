package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/report"
	"github.com/Veraticus/spice-ledger/internal/sheets"
	"github.com/Veraticus/spice-ledger/internal/testutil"
)

func enrichedRows() []model.EnrichedTransaction {
	raw := testutil.RawTxn(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), "SAFEWAY #1234", "60.12", model.AccountCreditCard)
	e := model.NewEnriched(raw)
	e.Amount = decimal.RequireFromString("-60.12")
	e.Category = "Groceries"
	e.Merchant = "SAFEWAY"
	e.SpendingType = model.SpendingNonDiscretionary
	return []model.EnrichedTransaction{e}
}

func TestPublish(t *testing.T) {
	rows := enrichedRows()

	t.Run("reports the spreadsheet URL", func(t *testing.T) {
		writer := sheets.NewMockWriter()
		writer.WriteFunc = func(context.Context, []model.EnrichedTransaction, report.Summary) (string, error) {
			return "sheet-123", nil
		}

		cmd := exportSheetsCmd()
		cmd.SetContext(context.Background())
		var out bytes.Buffer
		cmd.SetOut(&out)

		require.NoError(t, publish(cmd, writer, rows))
		assert.Contains(t, out.String(), "https://docs.google.com/spreadsheets/d/sheet-123")

		calls := writer.GetWriteCalls()
		require.Len(t, calls, 1)
		assert.Equal(t, rows, calls[0].Rows)
		assert.Equal(t, 1, calls[0].Summary.Rows)
		assert.True(t, decimal.RequireFromString("-60.12").Equal(calls[0].Summary.Outflow))
	})

	t.Run("write failure", func(t *testing.T) {
		writer := sheets.NewMockWriter()
		writer.SetWriteError(assert.AnError)

		cmd := exportSheetsCmd()
		cmd.SetContext(context.Background())
		cmd.SetOut(&bytes.Buffer{})

		err := publish(cmd, writer, rows)
		require.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, writer.WriteCallCount)
	})
}
