package proc

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/leeineian/luvibot/sys"
)

const sweepInterval = time.Minute

// Sweepable is any table that can evict entries idle since before cutoff.
type Sweepable interface {
	Sweep(cutoff time.Time) int
}

// SweepTarget evicts entries from Table once they are idle for TTL.
type SweepTarget struct {
	Name  string
	Table Sweepable
	TTL   time.Duration
}

type SessionSweeper struct {
	targets []SweepTarget
	running atomic.Bool
}

func NewSessionSweeper(targets ...SweepTarget) *SessionSweeper {
	return &SessionSweeper{targets: targets}
}

// Start is a sys daemon starter.
func (s *SessionSweeper) Start(ctx context.Context) (bool, func(), func()) {
	if len(s.targets) == 0 || !s.running.CompareAndSwap(false, true) {
		return false, nil, nil
	}

	return true, func() {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()

			for {
				select {
				case now := <-ticker.C:
					s.sweep(now)
				case <-ctx.Done():
					return
				}
			}
		}, func() {
			sys.LogSearch(sys.MsgSessionShutdown)
		}
}

func (s *SessionSweeper) sweep(now time.Time) int {
	total := 0
	for _, t := range s.targets {
		n := t.Table.Sweep(now.Add(-t.TTL))
		if n > 0 {
			sys.LogDebug("%s: "+sys.MsgSessionSwept, t.Name, n)
		}
		total += n
	}
	return total
}
