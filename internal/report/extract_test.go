package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOutput = `Enter password for signing key:
Transaction 4f7d... is being processed.
Transaction is finalized into block 9a1b... with cost 1.234567 CCD (2661 NRG).
some unrelated line
Transaction is finalized into block 77c2... with cost 0.5 CCD (1080 NRG).
`

func TestExtract(t *testing.T) {
	records, err := Extract(strings.NewReader(sampleOutput))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, 0, records[0].Index)
	assert.InDelta(t, 1.234567, records[0].Cost, 1e-9)
	assert.Equal(t, int64(2661), records[0].Energy)

	assert.Equal(t, 1, records[1].Index)
	assert.InDelta(t, 0.5, records[1].Cost, 1e-9)
	assert.Equal(t, int64(1080), records[1].Energy)
}

func TestExtract_NoMatches(t *testing.T) {
	records, err := Extract(strings.NewReader("nothing finalized here\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestWriteCSV(t *testing.T) {
	records := []Record{
		{Index: 0, Cost: 1.234567, Energy: 2661},
		{Index: 1, Cost: 0.5, Energy: 1080},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	want := "index,cost,energy\n0,1.234567,2661\n1,0.5,1080\n"
	assert.Equal(t, want, buf.String())
}

func TestTotals(t *testing.T) {
	records := []Record{
		{Cost: 1.25, Energy: 100},
		{Cost: 0.75, Energy: 200},
	}

	cost, energy := Totals(records)
	assert.InDelta(t, 2.0, cost, 1e-9)
	assert.Equal(t, int64(300), energy)
}
