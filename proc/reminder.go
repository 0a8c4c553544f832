package proc

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leeineian/luvibot/store"
	"github.com/leeineian/luvibot/sys"
)

const reminderInterval = 10 * time.Second

// Sender posts plain text into a channel.
type Sender interface {
	Send(ctx context.Context, channelID snowflake.ID, content string, mention snowflake.ID) error
}

type clientSender struct {
	client *bot.Client
}

// NewClientSender sends through the bot's REST client, paced by the shared
// outbound limiter.
func NewClientSender(client *bot.Client) Sender {
	return clientSender{client: client}
}

func (s clientSender) Send(ctx context.Context, channelID snowflake.ID, content string, mention snowflake.ID) error {
	if err := sys.WaitSend(ctx); err != nil {
		return err
	}
	msg := discord.NewMessageCreate().
		WithContent(content).
		WithAllowedMentions(&discord.AllowedMentions{Users: []snowflake.ID{mention}})
	_, err := s.client.Rest.CreateMessage(channelID, msg, rest.WithCtx(ctx))
	return err
}

// ReminderDelivery claims due reminders and posts them.
type ReminderDelivery struct {
	store   store.Store
	sender  Sender
	running atomic.Bool
}

func NewReminderDelivery(st store.Store, sender Sender) *ReminderDelivery {
	return &ReminderDelivery{store: st, sender: sender}
}

// Start is a sys daemon starter.
func (d *ReminderDelivery) Start(ctx context.Context) (bool, func(), func()) {
	if !d.running.CompareAndSwap(false, true) {
		return false, nil, nil
	}

	return true, func() {
			ticker := time.NewTicker(reminderInterval)
			defer ticker.Stop()

			d.deliverDue(ctx, time.Now())
			for {
				select {
				case <-ticker.C:
					d.deliverDue(ctx, time.Now())
				case <-ctx.Done():
					return
				}
			}
		}, func() {
			sys.LogReminder(sys.MsgReminderShutdown)
		}
}

func (d *ReminderDelivery) deliverDue(parentCtx context.Context, now time.Time) {
	ctx, cancel := context.WithTimeout(parentCtx, 30*time.Second)
	defer cancel()

	// Claiming deletes, so a reminder is never sent twice.
	reminders, err := d.store.ClaimDueReminders(ctx, now)
	if err != nil {
		sys.LogError(sys.MsgReminderFailedToQueryDue, err)
		return
	}

	for _, r := range reminders {
		sys.SafeGo(func() { d.send(parentCtx, r) })
	}
}

func (d *ReminderDelivery) send(ctx context.Context, r *store.Reminder) {
	if err := d.sender.Send(ctx, r.ChannelID, r.Message, r.UserID); err != nil {
		sys.LogError(sys.MsgReminderFailedToSend, r.ID, err)
		return
	}
	sys.LogReminder(sys.MsgReminderSent, r.Kind, r.ID, r.UserID)
}
