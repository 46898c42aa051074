package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/safesql/pkg/query"
)

func TestReadDescriptor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"from":"file"}`), 0o644))

	tests := []struct {
		name   string
		inline string
		file   string
		stdin  string
		want   string
	}{
		{name: "inline wins", inline: `{"from":"inline"}`, file: path, stdin: "x", want: `{"from":"inline"}`},
		{name: "file", file: path, stdin: "x", want: `{"from":"file"}`},
		{name: "dash reads stdin", file: "-", stdin: `{"from":"stdin"}`, want: `{"from":"stdin"}`},
		{name: "stdin fallback", stdin: "from: stdin", want: "from: stdin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadDescriptor(tt.inline, tt.file, strings.NewReader(tt.stdin))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestReadDescriptor_MissingFile(t *testing.T) {
	_, err := ReadDescriptor("", filepath.Join(t.TempDir(), "missing.json"), strings.NewReader(""))
	assert.Error(t, err)
}

func TestDecodeDescriptor(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var q query.CountQuery
		require.NoError(t, DecodeDescriptor([]byte(` {"from":"users","where":{"column":"id","operator":"=","value":"1"}}`), &q))
		assert.Equal(t, query.TableList{query.TableName("users")}, q.From)
		require.Len(t, q.Where, 1)
		assert.Equal(t, query.Operator("="), q.Where[0].Operator)
	})

	t.Run("yaml", func(t *testing.T) {
		var q query.SelectQuery
		in := "columns: [id, name]\nfrom: users\nlimit: 5\n"
		require.NoError(t, DecodeDescriptor([]byte(in), &q))
		assert.Equal(t, query.Cols("id", "name"), q.Columns)
		assert.Equal(t, 5, q.Limit)
	})

	t.Run("empty", func(t *testing.T) {
		var q query.SelectQuery
		assert.Error(t, DecodeDescriptor([]byte("  \n"), &q))
	})

	t.Run("invalid json", func(t *testing.T) {
		var q query.SelectQuery
		assert.Error(t, DecodeDescriptor([]byte(`{"columns":`), &q))
	})
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]any{"status": "OK"}))
	assert.Equal(t, "{\n  \"status\": \"OK\"\n}\n", buf.String())
}
