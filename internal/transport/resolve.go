package transport

import (
	"context"
	"fmt"
	"net"
)

// resolveTCPAddr はホスト名を解決し、IPv4 を優先してアドレスを返す
func resolveTCPAddr(ctx context.Context, host string, port int) (*net.TCPAddr, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("無効なポート番号: %d", port)
	}
	if host == "" {
		return &net.TCPAddr{IP: net.IPv4zero, Port: port}, nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("アドレスの解決に失敗 (%s): %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("アドレスが見つかりません: %s", host)
	}

	for _, a := range addrs {
		if ip4 := a.IP.To4(); ip4 != nil {
			return &net.TCPAddr{IP: ip4, Port: port}, nil
		}
	}
	return &net.TCPAddr{IP: addrs[0].IP, Port: port, Zone: addrs[0].Zone}, nil
}
