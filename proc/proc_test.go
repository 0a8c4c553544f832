package proc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leeineian/luvibot/session"
	"github.com/leeineian/luvibot/store"
)

type sent struct {
	channel snowflake.ID
	content string
	mention snowflake.ID
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []sent
	fail bool
	wg   sync.WaitGroup
}

func (f *fakeSender) Send(_ context.Context, ch snowflake.ID, content string, mention snowflake.ID) error {
	defer f.wg.Done()
	if f.fail {
		return errors.New("discord unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{ch, content, mention})
	return nil
}

func TestDeliverDueSendsAndClaims(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, st.ScheduleReminder(ctx, store.NewDropReminder(1, 10, 100, now.Add(-2*time.Hour), time.Hour, "due one")))
	require.NoError(t, st.ScheduleReminder(ctx, store.NewDropReminder(2, 20, 100, now, time.Hour, "not yet")))

	sender := &fakeSender{}
	sender.wg.Add(1)
	d := NewReminderDelivery(st, sender)
	d.deliverDue(ctx, now)
	sender.wg.Wait()

	require.Len(t, sender.msgs, 1)
	assert.Equal(t, sent{channel: 10, content: "due one", mention: 1}, sender.msgs[0])

	pending, err := st.PendingReminders(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	d.deliverDue(ctx, now)
	assert.Len(t, sender.msgs, 1, "claimed reminders are not sent twice")
}

func TestDeliverDueSendFailureDoesNotResend(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, st.ScheduleReminder(ctx, store.NewDropReminder(1, 10, 100, now.Add(-2*time.Hour), time.Hour, "x")))

	sender := &fakeSender{fail: true}
	sender.wg.Add(1)
	NewReminderDelivery(st, sender).deliverDue(ctx, now)
	sender.wg.Wait()

	pending, err := st.PendingReminders(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestReminderDeliveryStartsOnce(t *testing.T) {
	d := NewReminderDelivery(store.NewMemory(), &fakeSender{})
	ok, run, shutdown := d.Start(context.Background())
	assert.True(t, ok)
	assert.NotNil(t, run)
	assert.NotNil(t, shutdown)

	ok, _, _ = d.Start(context.Background())
	assert.False(t, ok)
}

func TestSessionSweeper(t *testing.T) {
	searches := session.NewTable[snowflake.ID, int]()
	watches := session.NewTable[snowflake.ID, int]()
	searches.Put(1, 1)
	watches.Put(2, 2)

	s := NewSessionSweeper(
		SweepTarget{Name: "search", Table: searches, TTL: 10 * time.Minute},
		SweepTarget{Name: "inventory", Table: watches, TTL: 5 * time.Minute},
	)

	assert.Equal(t, 0, s.sweep(time.Now()))
	assert.Equal(t, 1, s.sweep(time.Now().Add(6*time.Minute)))
	assert.Equal(t, 1, searches.Len())
	assert.Equal(t, 1, s.sweep(time.Now().Add(11*time.Minute)))
	assert.Equal(t, 0, searches.Len())
}

func TestSweeperWithoutTargetsDoesNotStart(t *testing.T) {
	ok, _, _ := NewSessionSweeper().Start(context.Background())
	assert.False(t, ok)
}

func TestStatusRotatorAvoidsRepeats(t *testing.T) {
	var mu sync.Mutex
	var shown []string
	set := func(_ context.Context, text string) error {
		mu.Lock()
		defer mu.Unlock()
		shown = append(shown, text)
		return nil
	}
	r := NewStatusRotator(set,
		func() string { return "a" },
		func() string { return "" },
		func() string { return "b" },
	)

	for i := 0; i < 10; i++ {
		r.rotate(context.Background(), time.Second)
	}
	require.Len(t, shown, 10)
	for i := 1; i < len(shown); i++ {
		assert.NotEqual(t, shown[i-1], shown[i])
		assert.Contains(t, []string{"a", "b"}, shown[i])
	}
}

func TestStatusRotatorSingleSourceRepeats(t *testing.T) {
	r := NewStatusRotator(func(context.Context, string) error { return nil }, func() string { return "only" })
	assert.Equal(t, "only", r.pick())
	assert.Equal(t, "only", r.pick())

	empty := NewStatusRotator(nil, func() string { return "" })
	assert.Equal(t, "", empty.pick())
	empty.rotate(context.Background(), time.Second)
}

func TestUptimeStatus(t *testing.T) {
	assert.Contains(t, UptimeStatus(), "Uptime: ")
}
