package response

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyresponder/internal/config"
)

func TestStaticPolicy_Payload(t *testing.T) {
	p := NewStaticPolicy([]byte(config.DefaultBody))

	payload, err := p.Payload()
	require.NoError(t, err)

	want := "HTTP/1.1 200 OK\r\nContent-Length: 23\r\n\r\nHello from MicroPython!\n"
	assert.Equal(t, want, string(payload))
	assert.True(t, p.LogsRequest())
	assert.Equal(t, config.PolicyStatic, p.Name())

	// 何度呼んでも同じバッファ
	again, err := p.Payload()
	require.NoError(t, err)
	assert.Equal(t, &payload[0], &again[0])
}

func TestBuildHTTP(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		contentType string
		want        string
	}{
		{"空の本文", "", "", "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"},
		{"Content-Typeなし", "ok", "", "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"},
		{"Content-Typeあり", "ok", "text/plain", "HTTP/1.1 200 OK\r\nContent-Length: 2\r\nContent-Type: text/plain\r\n\r\nok"},
		{"マルチバイト", "千里", "", "HTTP/1.1 200 OK\r\nContent-Length: 6\r\n\r\n千里"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, string(BuildHTTP([]byte(tc.body), tc.contentType)))
		})
	}
}

func TestFilePolicy_RawBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("<h1>hi</h1>"), 0o644))

	p := NewFilePolicy(path, false)
	payload, err := p.Payload()
	require.NoError(t, err)

	assert.Equal(t, "<h1>hi</h1>", string(payload))
	assert.False(t, p.LogsRequest())
	assert.Equal(t, path, p.Path())
}

// TestFilePolicy_Freshness はファイルの変更が次の呼び出しで反映されることを確認する
func TestFilePolicy_Freshness(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte("<h1>v1</h1>"), 0o644))

	p := NewFilePolicy(path, false)

	first, err := p.Payload()
	require.NoError(t, err)
	assert.Equal(t, "<h1>v1</h1>", string(first))

	require.NoError(t, os.WriteFile(path, []byte("<h1>version two</h1>"), 0o644))

	second, err := p.Payload()
	require.NoError(t, err)
	assert.Equal(t, "<h1>version two</h1>", string(second))
}

func TestFilePolicy_HTTPFraming(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	body := "<!DOCTYPE html><html><body><h1>hi</h1></body></html>"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	payload, err := NewFilePolicy(path, true).Payload()
	require.NoError(t, err)

	s := string(payload)
	assert.True(t, strings.HasPrefix(s, "HTTP/1.1 200 OK\r\n"))
	assert.Contains(t, s, fmt.Sprintf("Content-Length: %d\r\n", len(body)))
	assert.Contains(t, s, "Content-Type: text/html")
	assert.True(t, strings.HasSuffix(s, "\r\n\r\n"+body))
}

func TestFilePolicy_Missing(t *testing.T) {
	p := NewFilePolicy(filepath.Join(t.TempDir(), "missing.html"), false)
	_, err := p.Payload()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNew(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		p, err := New(config.ResponseConfig{Policy: config.PolicyStatic, Body: "x"})
		require.NoError(t, err)
		assert.IsType(t, &StaticPolicy{}, p)
	})

	t.Run("file", func(t *testing.T) {
		p, err := New(config.ResponseConfig{Policy: config.PolicyFile, FilePath: "index.html", Framing: config.FramingRaw})
		require.NoError(t, err)
		require.IsType(t, &FilePolicy{}, p)
		assert.False(t, p.(*FilePolicy).withHeaders)
	})

	t.Run("不明", func(t *testing.T) {
		_, err := New(config.ResponseConfig{Policy: "proxy"})
		assert.Error(t, err)
	})
}
