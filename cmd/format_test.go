package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dawa-cli/internal/store"
)

func TestFormatRuns(t *testing.T) {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runs := []store.Run{
		{
			ID:             2,
			StartedAt:      started,
			CompletedAt:    started.Add(4 * time.Second),
			Mode:           store.ModeUpsert,
			PostalCodes:    1089,
			Municipalities: 98,
			Links:          1230,
		},
		{
			ID:          1,
			StartedAt:   started.Add(-time.Hour),
			CompletedAt: started.Add(-time.Hour + time.Second),
			Mode:        store.ModeInsert,
		},
	}

	var buf bytes.Buffer
	formatRuns(&buf, runs)
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "ID")
	assert.Contains(t, lines[0], "POSTAL CODES")
	assert.Contains(t, lines[2], "upsert")
	assert.Contains(t, lines[2], "2024-05-01 12:00")
	assert.Contains(t, lines[2], "4s")
	assert.Contains(t, lines[2], "1089")
	assert.Contains(t, lines[3], "insert")
}

func TestFormatRuns_Empty(t *testing.T) {
	var buf bytes.Buffer
	formatRuns(&buf, nil)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
}

func TestFormatMunicipalities(t *testing.T) {
	var buf bytes.Buffer
	formatMunicipalities(&buf, []store.Municipality{
		{Code: "0101", Name: "København", PostalCodes: 42},
		{Code: "0461", Name: "Odense", PostalCodes: 7},
	})
	out := buf.String()

	assert.Contains(t, out, "CODE")
	assert.Contains(t, out, "0101")
	assert.Contains(t, out, "København")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "0461")
}

func TestWriteOutput(t *testing.T) {
	ms := []store.Municipality{{Code: "0101", Name: "København", PostalCodes: 42}}

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "json", ms, func(io.Writer) { t.Fatal("table called") }))
	assert.JSONEq(t, `[{"municipalitycode":"0101","municipalityname":"København","postal_codes":42}]`, buf.String())

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "yaml", ms, func(io.Writer) { t.Fatal("table called") }))
	assert.YAMLEq(t, "- municipalitycode: \"0101\"\n  municipalityname: København\n  postal_codes: 42\n", buf.String())

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "", ms, func(w io.Writer) { formatMunicipalities(w, ms) }))
	assert.Contains(t, buf.String(), "CODE")

	err := writeOutput(&buf, "csv", ms, func(io.Writer) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "csv"`)
}
