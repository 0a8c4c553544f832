package proc

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/gateway"

	"github.com/leeineian/luvibot/sys"
)

// StatusSource produces one presence line, or "" when it has nothing to say.
type StatusSource func() string

// rotationInterval is 15 to 60 seconds.
func rotationInterval() time.Duration {
	return time.Duration(15+rand.Intn(46)) * time.Second
}

// StatusRotator cycles the bot's watching activity through its sources.
type StatusRotator struct {
	set     func(ctx context.Context, text string) error
	sources []StatusSource

	mu      sync.Mutex
	last    string
	running atomic.Bool
}

func NewStatusRotator(set func(ctx context.Context, text string) error, sources ...StatusSource) *StatusRotator {
	return &StatusRotator{set: set, sources: sources}
}

// Start is a sys daemon starter.
func (r *StatusRotator) Start(ctx context.Context) (bool, func(), func()) {
	if len(r.sources) == 0 || !r.running.CompareAndSwap(false, true) {
		return false, nil, nil
	}
	return true, func() {
		for {
			next := rotationInterval()
			r.rotate(ctx, next)
			select {
			case <-time.After(next):
			case <-ctx.Done():
				return
			}
		}
	}, nil
}

// pick chooses a non-empty line, avoiding an immediate repeat when there is
// any alternative.
func (r *StatusRotator) pick() string {
	var available []string
	for _, src := range r.sources {
		if text := src(); text != "" {
			available = append(available, text)
		}
	}
	if len(available) == 0 {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	var choices []string
	for _, s := range available {
		if s != r.last {
			choices = append(choices, s)
		}
	}
	if len(choices) == 0 {
		choices = available
	}
	r.last = choices[rand.Intn(len(choices))]
	return r.last
}

func (r *StatusRotator) rotate(ctx context.Context, next time.Duration) {
	text := r.pick()
	if text == "" {
		return
	}
	if err := r.set(ctx, text); err != nil {
		sys.LogWarn(sys.MsgStatusUpdateFail, err)
		return
	}
	sys.LogDebug(sys.MsgStatusRotated, text, next)
}

// UptimeStatus reports how long the process has been up.
func UptimeStatus() string {
	uptime := time.Since(sys.StartupTime)
	return fmt.Sprintf("Uptime: %dh %dm", int(uptime.Hours()), int(uptime.Minutes())%60)
}

func latencyStatus(client *bot.Client) StatusSource {
	return func() string {
		ping := client.Gateway.Latency()
		if ping == 0 {
			return ""
		}
		return fmt.Sprintf("Ping: %dms", ping.Milliseconds())
	}
}

func clientPresence(client *bot.Client) func(ctx context.Context, text string) error {
	return func(ctx context.Context, text string) error {
		return client.SetPresence(ctx,
			gateway.WithOnlineStatus(discord.OnlineStatusOnline),
			gateway.WithWatchingActivity(text),
		)
	}
}
