package transport

import (
	"errors"
	"fmt"
)

// Auto は候補から自動選択することを表す名前
const Auto = "auto"

// ErrNoTransport は利用可能な実装が無いことを表す
var ErrNoTransport = errors.New("利用可能なトランスポートがありません")

// DefaultCandidates は優先順に並べた実装の候補を返す
func DefaultCandidates() []Transport {
	return []Transport{
		NewUnixTransport(),
		NewNetTransport(),
	}
}

// Negotiate は候補から実装を選ぶ
//
// name が Auto か空なら最初に利用可能な候補を返す。
// それ以外は同名の候補を返し、利用できなければエラーにする。
func Negotiate(name string, candidates ...Transport) (Transport, error) {
	if name == "" || name == Auto {
		for _, t := range candidates {
			if t.Available() {
				return t, nil
			}
		}
		return nil, ErrNoTransport
	}

	for _, t := range candidates {
		if t.Name() != name {
			continue
		}
		if !t.Available() {
			return nil, fmt.Errorf("トランスポート %q は利用できません: %w", name, ErrNoTransport)
		}
		return t, nil
	}
	return nil, fmt.Errorf("不明なトランスポート %q: %w", name, ErrNoTransport)
}
