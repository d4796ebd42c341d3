//go:build unix

package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixTransport_ListenAccept(t *testing.T) {
	tr := NewUnixTransport()
	require.True(t, tr.Available())
	assert.True(t, tr.HonorsBacklog())

	addr, err := tr.Resolve(context.Background(), "127.0.0.1", 0)
	require.NoError(t, err)

	ln, err := tr.Listen(context.Background(), addr, 5)
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	require.True(t, ok)
	assert.NotZero(t, tcpAddr.Port, "エフェメラルポートが割り当てられていません")

	assert.Equal(t, "GET / HTTP/1.1\r\n\r\n", roundTrip(t, ln, "GET / HTTP/1.1\r\n\r\n"))
}

// TestUnixTransport_Rebind は SO_REUSEADDR により直後の再バインドが成功することを確認する
func TestUnixTransport_Rebind(t *testing.T) {
	tr := NewUnixTransport()
	addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}

	ln, err := tr.Listen(context.Background(), addr, 5)
	require.NoError(t, err)
	bound := ln.Addr().(*net.TCPAddr)

	// サーバー側から先に閉じて TIME_WAIT を作る
	client, err := net.DialTimeout("tcp", bound.String(), 2*time.Second)
	require.NoError(t, err)
	conn, err := ln.Accept()
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	_ = client.Close()
	require.NoError(t, ln.Close())

	again, err := tr.Listen(context.Background(), bound, 5)
	require.NoError(t, err, "同じアドレスへの再バインドに失敗しました")
	_ = again.Close()
}

func TestUnixTransport_BindConflict(t *testing.T) {
	tr := NewUnixTransport()

	first, err := tr.Listen(context.Background(), &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}, 5)
	require.NoError(t, err)
	defer func() { _ = first.Close() }()

	// 待ち受け中のアドレスには SO_REUSEADDR でもバインドできない
	_, err = tr.Listen(context.Background(), first.Addr().(*net.TCPAddr), 5)
	assert.Error(t, err)
}

func TestUnixTransport_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewUnixTransport().Listen(ctx, &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}, 5)
	assert.ErrorIs(t, err, context.Canceled)
}
