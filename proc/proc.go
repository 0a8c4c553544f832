// Package proc holds the background daemons started once the gateway is
// ready.
package proc

import (
	"context"

	"github.com/disgoorg/disgo/bot"

	"github.com/leeineian/luvibot/store"
	"github.com/leeineian/luvibot/sys"
)

// Register queues the reminder and session daemons to start on ready.
func Register(st store.Store, targets ...SweepTarget) {
	sweeper := NewSessionSweeper(targets...)
	sys.RegisterDaemon(sys.LogSearch, sweeper.Start)

	sys.OnClientReady(func(_ context.Context, client *bot.Client) {
		delivery := NewReminderDelivery(st, NewClientSender(client))
		sys.RegisterDaemon(sys.LogReminder, delivery.Start)
	})
}

// RegisterStatus rotates the presence through sources plus uptime and
// gateway latency once the client is ready.
func RegisterStatus(sources ...StatusSource) {
	sys.OnClientReady(func(_ context.Context, client *bot.Client) {
		all := append([]StatusSource{UptimeStatus, latencyStatus(client)}, sources...)
		rotator := NewStatusRotator(clientPresence(client), all...)
		sys.RegisterDaemon(sys.LogInfo, rotator.Start)
	})
}
