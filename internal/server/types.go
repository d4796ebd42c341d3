package server

import (
	"sync/atomic"
	"time"
)

// State は応答ループの状態を表す
type State string

const (
	StateIdle    State = "idle"    // accept でブロック中
	StateServing State = "serving" // accept からクローズまで
)

// Stats は応答ループが公開する観測用の値
//
// ループ内のカウンタはループ自身が持ち、ここへは結果を書き出すだけ。
type Stats struct {
	startedAt    time.Time
	state        atomic.Value
	served       atomic.Uint64
	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
	lastRemote   atomic.Value
}

// StatsSnapshot はある時点のStatsの値
type StatsSnapshot struct {
	State        State     `json:"state"`
	Served       uint64    `json:"served"`
	BytesRead    uint64    `json:"bytes_read"`
	BytesWritten uint64    `json:"bytes_written"`
	LastRemote   string    `json:"last_remote,omitempty"`
	StartedAt    time.Time `json:"started_at"`
}

// NewStats は新しいStatsを作成する
func NewStats() *Stats {
	s := &Stats{startedAt: time.Now()}
	s.state.Store(StateIdle)
	s.lastRemote.Store("")
	return s
}

func (s *Stats) setState(state State) {
	s.state.Store(state)
}

// publish は処理済みの接続の結果を書き出す
func (s *Stats) publish(seq uint64, remote string, read, written int) {
	s.served.Store(seq)
	s.bytesRead.Add(uint64(read))
	s.bytesWritten.Add(uint64(written))
	s.lastRemote.Store(remote)
}

// Snapshot は現在の値を返す
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		State:        s.state.Load().(State),
		Served:       s.served.Load(),
		BytesRead:    s.bytesRead.Load(),
		BytesWritten: s.bytesWritten.Load(),
		LastRemote:   s.lastRemote.Load().(string),
		StartedAt:    s.startedAt,
	}
}
