package server

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/dicetable/internal/game"
)

func TestRegistryGetOrCreate(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fastTiming)

	room, err := h.registry.GetOrCreate("high", 25)
	require.NoError(t, err)
	assert.Equal(t, int64(25), room.Snapshot().MinBet)

	again, err := h.registry.GetOrCreate("high", 100)
	require.NoError(t, err)
	assert.Same(t, room, again)
	assert.Equal(t, int64(25), again.Snapshot().MinBet, "min bet only applies on creation")

	seat, _ := room.Snapshot().Seat("seat1")
	assert.Equal(t, int64(25*200), seat.Balance)

	_, err = h.registry.GetOrCreate("", 0)
	assert.ErrorIs(t, err, ErrInvalidTableID)
}

func TestRegistryRejectsOversizedMinBet(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fastTiming+`
table "main" {
  min_bet = 10
}
`)

	_, err := h.registry.GetOrCreate("whale", 50_000_000_000_000_000)
	require.ErrorIs(t, err, ErrMinBetTooLarge)
	_, ok := h.registry.Get("whale")
	assert.False(t, ok, "refused tables are not created")

	room, err := h.registry.GetOrCreate("main", 50_000_000_000_000_000)
	require.NoError(t, err, "declared tables keep their own min bet")
	assert.Equal(t, int64(10), room.Snapshot().MinBet)

	room, err = h.registry.GetOrCreate("ceiling", 1_000_000)
	require.NoError(t, err)
	seat, _ := room.Snapshot().Seat("seat1")
	assert.Equal(t, int64(200_000_000), seat.Balance)

	loose := newHarness(t, fastTiming+`
defaults {
  max_min_bet = 9223372036854775807
}
`)
	_, err = loose.registry.GetOrCreate("whale", 50_000_000_000_000_000)
	require.Error(t, err, "the table itself refuses stakes that overflow")
	_, ok = loose.registry.Get("whale")
	assert.False(t, ok)
}

func TestRegistryConcurrentCreateIsSingle(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fastTiming)

	const workers = 16
	rooms := make([]*Room, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			room, err := h.registry.GetOrCreate("shared", 0)
			assert.NoError(t, err)
			rooms[i] = room
		}()
	}
	wg.Wait()

	for _, room := range rooms {
		assert.Same(t, rooms[0], room)
	}
	assert.Equal(t, 1, h.registry.Len())
}

func TestRegistryDeclaredTables(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fastTiming+`
table "vip" {
  min_bet = 50
  seats   = ["north", "east", "south", "west"]
}
`)

	room, ok := h.registry.Get("vip")
	require.True(t, ok)
	snap := room.Snapshot()
	assert.Equal(t, int64(50), snap.MinBet)
	require.Len(t, snap.Seats, 4)
	assert.Equal(t, "north", snap.Seats[0].Label)

	_, err := h.registry.GetOrCreate("alpha", 0)
	require.NoError(t, err)
	summaries := h.registry.Summaries()
	require.Len(t, summaries, 2)
	assert.Equal(t, "alpha", summaries[0].ID)
	assert.Equal(t, "vip", summaries[1].ID)
}

func TestRegistrySweepRemovesIdleTables(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fastTiming+`
table "lobby" {}
`)
	room := h.room(t, "t1")
	room.Join("a")
	require.NoError(t, room.ClaimSeat("a", "seat1"))

	now := h.clock.Now()
	assert.Empty(t, h.registry.Sweep(now.Add(time.Hour)), "occupied table stays")

	room.ReleaseSeat("a")
	room.Leave("a")
	assert.Empty(t, h.registry.Sweep(now.Add(30*time.Second)))

	removed := h.registry.Sweep(now.Add(time.Minute))
	assert.Equal(t, []string{"t1"}, removed)
	_, ok := h.registry.Get("t1")
	assert.False(t, ok)
	_, ok = h.registry.Get("lobby")
	assert.True(t, ok, "declared tables are never swept")
}

func TestRegistryJoinRecreatesSweptTable(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fastTiming)

	stale, err := h.registry.GetOrCreate("t1", 25)
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, h.registry.Sweep(h.clock.Now().Add(time.Hour)))

	assert.ErrorIs(t, stale.Join("a"), ErrTableClosed)
	assert.Equal(t, 0, h.sender.count("a"), "closed table sends nothing")

	room, err := h.registry.Join("t1", 25, "a")
	require.NoError(t, err)
	assert.NotSame(t, stale, room)
	assert.Equal(t, []string{"a"}, room.Subscribers())
	assert.Equal(t, "t1", h.sender.lastState(t, "a").TableID)

	live, ok := h.registry.Get("t1")
	require.True(t, ok)
	assert.Same(t, room, live)
	assert.Empty(t, h.registry.Sweep(h.clock.Now().Add(time.Hour)), "subscribed table stays")
}

func TestRegistrySweepDisabled(t *testing.T) {
	t.Parallel()
	h := newHarness(t, `
timing {
  idle_table_ttl = "0s"
}
`)
	h.room(t, "t1")
	assert.Empty(t, h.registry.Sweep(h.clock.Now().Add(24*time.Hour)))
	assert.Equal(t, 1, h.registry.Len())
}

func TestRegistryTickAllIsolatesFailures(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fastTiming)
	bad := h.room(t, "bad") // no dice scripted, the auto-roll panics
	good := h.room(t, "good")
	bad.Join("a")
	require.NoError(t, bad.ClaimSeat("a", "seat1"))
	good.Join("b")

	ctx := context.Background()
	for range 3 {
		require.NoError(t, h.registry.TickAll(ctx))
	}

	err := h.registry.TickAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table bad")

	snap := good.Snapshot()
	assert.Equal(t, game.PhaseBetting, snap.Phase, "good table healed on schedule")
	assert.Equal(t, 2, snap.Countdown)

	bad.Join("c")
	assert.Equal(t, "bad", h.sender.lastState(t, "c").TableID, "bad table still serves requests")
}

func TestRegistryTickLimit(t *testing.T) {
	t.Parallel()
	for _, limit := range []int{1, 0} {
		h := newHarness(t, fastTiming)
		h.registry.SetTickLimit(limit)
		rooms := []*Room{h.room(t, "a"), h.room(t, "b"), h.room(t, "c")}
		for i, room := range rooms {
			room.Join(fmt.Sprintf("w%d", i))
		}

		require.NoError(t, h.registry.TickAll(context.Background()), "limit %d", limit)
		for _, room := range rooms {
			assert.Equal(t, 1, room.Snapshot().Countdown, "limit %d table %s", limit, room.ID())
		}
	}
}

func TestRegistryRunTicksOnClock(t *testing.T) {
	t.Parallel()
	h := newHarness(t, fastTiming)
	room := h.room(t, "t1")
	room.Join("a")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.registry.Run(ctx) }()

	require.Eventually(t, func() bool {
		h.advance(t, time.Second)
		return room.Snapshot().Countdown < 2
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
