package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adminpanel/internal/maintenance"
)

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"backfill-totals", "sync-orders", "inspect-order", "rekey-customers"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("dry-run"))
	assert.NotNil(t, syncCmd.Flags().Lookup("order"))
	assert.NotNil(t, backfillCmd.Flags().Lookup("workers"))
}

func TestInspectRequiresOrderID(t *testing.T) {
	assert.Error(t, inspectCmd.Args(inspectCmd, nil))
	assert.NoError(t, inspectCmd.Args(inspectCmd, []string{"ORD-000001"}))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, maintenance.BackfillReport{Scanned: 3, OrderIDs: []string{}}))
	assert.Contains(t, buf.String(), `"scanned": 3`)
}
