package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter_PlainPrefixes(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinterWithWriters(&out, &errOut, false)

	p.Info("checking %d accounts", 3)
	p.Success("removed %s", "2 accounts")
	p.Warning("dry run")
	p.Error("failed")

	assert.Equal(t, "checking 3 accounts\n[OK] removed 2 accounts\n", out.String())
	assert.Equal(t, "[WARN] dry run\n[ERROR] failed\n", errOut.String())
}

func TestPrinter_Colors(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinterWithWriters(&out, &out, true)

	p.Success("done")

	assert.Contains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "done")
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, []string{"username", "records"})
	table.AddRow("gone@example.com", "12")
	table.AddRow("old@example.com", "3")

	require.NoError(t, table.Render())

	assert.Contains(t, buf.String(), "gone@example.com")
	assert.Contains(t, buf.String(), "12")
	assert.Contains(t, buf.String(), "old@example.com")
}
