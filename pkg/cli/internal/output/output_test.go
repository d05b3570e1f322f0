package output

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, map[string]string{"a": "<b>"}))
	assert.Equal(t, "{\n  \"a\": \"<b>\"\n}\n", buf.String())
}

func TestTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	tw := Table(&buf)
	fmt.Fprintln(tw, "GET\t/a")
	fmt.Fprintln(tw, "DELETE\t/b")
	require.NoError(t, tw.Flush())
	assert.Equal(t, "GET     /a\nDELETE  /b\n", buf.String())
}

func TestWarn(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Warn(&buf, "%d things", 2)
	assert.Equal(t, "Warning: 2 things\n", buf.String())
}
