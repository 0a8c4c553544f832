package session

import (
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = snowflake.ID(11)
	bob   = snowflake.ID(22)
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPagesOfTwentyFive(t *testing.T) {
	p := NewPaginator[int](nil)

	v := p.Start(alice, seq(25))
	assert.Len(t, v.Items, 10)
	assert.Equal(t, 0, v.Page)
	assert.Equal(t, 3, v.TotalPages)
	assert.Equal(t, 25, v.Total)
	assert.NotEmpty(t, v.Token)

	_, err := p.Advance(alice, Previous, v.Token)
	assert.ErrorIs(t, err, ErrPageOutOfRange)

	v, err = p.Advance(alice, Next, v.Token)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 10, v.Offset)
	assert.Len(t, v.Items, 10)
	assert.Equal(t, 11, v.Items[0])

	v, err = p.Advance(alice, Next, v.Token)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, []int{21, 22, 23, 24, 25}, v.Items)

	_, err = p.Advance(alice, Next, v.Token)
	assert.ErrorIs(t, err, ErrPageOutOfRange)

	cur, err := p.Current(alice)
	require.NoError(t, err)
	assert.Equal(t, 2, cur.Page, "a rejected move leaves the page alone")
}

func TestSelectUsesFullSequence(t *testing.T) {
	p := NewPaginator[int](nil)
	p.Start(alice, seq(25))

	_, err := p.Select(alice, 26)
	assert.ErrorIs(t, err, ErrInvalidSelection)
	_, err = p.Select(alice, 0)
	assert.ErrorIs(t, err, ErrInvalidSelection)
	assert.True(t, p.Active(alice), "invalid selection keeps the session")

	got, err := p.Select(alice, 15)
	require.NoError(t, err)
	assert.Equal(t, 15, got)
	assert.False(t, p.Active(alice), "a valid selection ends the session")

	_, err = p.Select(alice, 1)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestNewSearchReplacesSession(t *testing.T) {
	p := NewPaginator[int](nil)
	first := p.Start(alice, seq(25))
	second := p.Start(alice, seq(12))
	assert.NotEqual(t, first.Token, second.Token)

	_, err := p.Advance(alice, Next, first.Token)
	assert.ErrorIs(t, err, ErrStaleSession)

	v, err := p.Advance(alice, Next, second.Token)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 12}, v.Items)
}

func TestSessionsArePerUser(t *testing.T) {
	p := NewPaginator[int](nil)
	p.Start(alice, seq(25))
	p.Start(bob, seq(3))

	_, err := p.Advance(bob, Next, "")
	assert.ErrorIs(t, err, ErrPageOutOfRange)

	v, err := p.Advance(alice, Next, "")
	require.NoError(t, err)
	assert.Equal(t, 1, v.Page)

	p.Discard(alice)
	assert.False(t, p.Active(alice))
	assert.True(t, p.Active(bob))

	_, err = p.Advance(alice, Next, "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSharedTableIsInjected(t *testing.T) {
	table := NewTable[snowflake.ID, *Session[string]]()
	p := NewPaginator(table)
	p.Start(alice, []string{"a", "b"})
	assert.Equal(t, 1, table.Len())
	assert.Same(t, table, p.Table())
}

func TestTableSweep(t *testing.T) {
	table := NewTable[string, int]()
	table.Put("a", 1)
	table.Put("b", 2)

	assert.Equal(t, 0, table.Sweep(time.Now().Add(-time.Minute)))
	assert.Equal(t, 2, table.Len())

	assert.Equal(t, 2, table.Sweep(time.Now().Add(time.Minute)))
	assert.Equal(t, 0, table.Len())
}

func TestTableUpdate(t *testing.T) {
	table := NewTable[string, int]()
	table.Put("n", 1)

	v, err := table.Update("n", func(v int, ok bool) (int, bool, error) {
		require.True(t, ok)
		return v + 1, true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = table.Update("n", func(v int, ok bool) (int, bool, error) {
		return 0, false, nil
	})
	require.NoError(t, err)
	_, ok := table.Get("n")
	assert.False(t, ok)
}

func TestConcurrentSessions(t *testing.T) {
	p := NewPaginator[int](nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id snowflake.ID) {
			defer wg.Done()
			v := p.Start(id, seq(30))
			_, _ = p.Advance(id, Next, v.Token)
			_, _ = p.Select(id, 30)
		}(snowflake.ID(i + 100))
	}
	wg.Wait()
	assert.Equal(t, 0, p.Table().Len())
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection(Previous.String())
	assert.True(t, ok)
	assert.Equal(t, Previous, d)
	_, ok = ParseDirection("sideways")
	assert.False(t, ok)
}
