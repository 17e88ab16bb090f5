package cli

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFormat(t *testing.T) {
	t.Cleanup(func() { outputFlag = string(formatAuto) })

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	tests := []struct {
		flag string
		want outputFormat
	}{
		{"auto", formatJSON},
		{"", formatJSON},
		{"table", formatTable},
		{"json", formatJSON},
	}
	for _, tt := range tests {
		outputFlag = tt.flag
		got, err := resolveFormat(cmd)
		require.NoError(t, err, tt.flag)
		assert.Equal(t, tt.want, got, tt.flag)
	}

	outputFlag = "yaml"
	_, err := resolveFormat(cmd)
	assert.Error(t, err)
}

func TestPrintResult(t *testing.T) {
	t.Cleanup(func() { outputFlag = string(formatAuto) })

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	outputFlag = "json"
	require.NoError(t, printResult(cmd, map[string]int{"chunks": 3}, nil))
	assert.JSONEq(t, `{"chunks":3}`, buf.String())

	buf.Reset()
	outputFlag = "table"
	require.NoError(t, printResult(cmd, nil, func(w io.Writer) {
		fmt.Fprintln(w, "A\tB")
		fmt.Fprintln(w, "long-value\tx")
	}))
	assert.Equal(t, "A           B\nlong-value  x\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	assert.Equal(t, "ação...", truncate("ação rápida", 7))
	assert.Equal(t, "anything", truncate("anything", 0))
}
