package grid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_UnevenRows(t *testing.T) {
	in := "a,b,c\nd\n,,\n"
	g, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 3, g.Rows())
	assert.Equal(t, 3, g.Width())
	assert.Equal(t, "c", g.Cell(0, 2))
	assert.Equal(t, "", g.Cell(1, 2), "missing trailing cells read as empty")
	assert.Equal(t, "", g.Cell(99, 0), "out-of-bounds rows read as empty")
}

func TestRead_PreservesTextByteExact(t *testing.T) {
	in := "הכנסה כספית נטו,7510\n  padded  ,(42.3)\n"
	g, err := Read(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, "הכנסה כספית נטו", g.Cell(0, 0))
	assert.Equal(t, "  padded  ", g.Cell(1, 0), "cells are not trimmed by the reader")
	assert.Equal(t, "(42.3)", g.Cell(1, 1))
}

func TestRowBlank(t *testing.T) {
	g, err := Read(strings.NewReader("a,b\n ,\t\nc\n"))
	require.NoError(t, err)

	assert.False(t, g.RowBlank(0))
	assert.True(t, g.RowBlank(1))
	assert.False(t, g.RowBlank(2))
	assert.True(t, g.RowBlank(42))
}
