package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// KeyValueBlock
// ---------------------------------------------------------------------------

func TestKeyValueBlockRendersPairsInOrder(t *testing.T) {
	out := KeyValueBlock("Penalty Contract", [][2]string{
		{"Fine per penalty", "0.5 C2FLR"},
		{"Block threshold", "3"},
		{"Owner", "0x2222…2222"},
	})

	assert.Contains(t, out, "Penalty Contract")
	fine := strings.Index(out, "Fine per penalty")
	threshold := strings.Index(out, "Block threshold")
	owner := strings.Index(out, "Owner")
	require.True(t, fine >= 0 && threshold >= 0 && owner >= 0, out)
	assert.Less(t, fine, threshold)
	assert.Less(t, threshold, owner)
	assert.Contains(t, out, "0.5 C2FLR")
}

func TestKeyValueBlockAlignsKeys(t *testing.T) {
	out := KeyValueBlock("", [][2]string{
		{"A", "one"},
		{"Longer", "two"},
	})
	assert.Contains(t, out, "A:      ")
	assert.Contains(t, out, "Longer:  two")
}

func TestKeyValueBlockWithoutPairsStillBoxed(t *testing.T) {
	out := KeyValueBlock("Empty", nil)
	assert.Contains(t, out, "Empty")
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "╰")
}

// ---------------------------------------------------------------------------
// Column.fit
// ---------------------------------------------------------------------------

func TestColumnFit(t *testing.T) {
	tests := []struct {
		col  Column
		in   string
		want string
	}{
		{Column{Width: 6}, "abc", "abc   "},
		{Column{Width: 6}, "abcdefghij", "abcde…"},
		{Column{Width: 5, Right: true}, "42", "   42"},
		{Column{Width: 3, Right: true}, "12345", "12…"},
		{Column{Width: 4}, "", "    "},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.col.fit(tc.in), "fit(%q) width %d", tc.in, tc.col.Width)
	}
}

// ---------------------------------------------------------------------------
// Table
// ---------------------------------------------------------------------------

func TestNewTableStartsUnselected(t *testing.T) {
	tbl := NewTable([]Column{{Title: "Name", Width: 10}})
	assert.Empty(t, tbl.Rows)
	assert.Equal(t, -1, tbl.SelIdx)
}

func TestTableRender(t *testing.T) {
	tbl := NewTable([]Column{
		{Title: "Wallet", Width: 10},
		{Title: "Type", Width: 10},
		{Title: "Penalties", Width: 9, Right: true},
	})
	tbl.AddRow(Row{"treasury", "signing", "0"})
	tbl.AddRow(Row{"auditor", "watch-only", "3"})
	tbl.AddRow(Row{"short"})
	tbl.SelIdx = 1

	out := tbl.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)

	assert.Contains(t, lines[0], "Wallet")
	assert.Contains(t, lines[0], "Penalties")
	assert.Contains(t, lines[1], "----------")
	assert.Contains(t, lines[2], "treasury")
	assert.Contains(t, lines[3], "watch-only")
	assert.Contains(t, lines[3], "        3")
	assert.Contains(t, lines[4], "short", "missing cells render empty")
}
