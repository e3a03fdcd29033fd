package testing

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/dicetable/internal/server"
)

func TestBotsPlayRoundsAndConserveChips(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}
	t.Parallel()

	ts := startTestServer(t, FastConfig, 42)
	shooter := startBot(t, ts, "main", "seat1", 1)
	fader := startBot(t, ts, "main", "seat2", 2)

	require.Eventually(t, func() bool {
		return ts.Rounds("main") >= 3
	}, 20*time.Second, 50*time.Millisecond, "bots should settle rounds")

	snap := ts.Room(t, "main").Snapshot()
	assert.Equal(t, int64(4*10*200), tableValue(snap))
	assert.NotEmpty(t, snap.Activity)

	seats := []string{shooter.Seat(), fader.Seat()}
	assert.ElementsMatch(t, []string{"seat1", "seat2"}, seats)
}

func TestWatcherSeesLiveTable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}
	t.Parallel()

	ts := startTestServer(t, FastConfig, 7)
	watcher := connectTestClient(t, ts, "main")
	view := attachWatcher(watcher, "main")
	require.NoError(t, watcher.Join(0))

	startBot(t, ts, "main", "seat1", 3)
	startBot(t, ts, "main", "seat3", 4)

	require.Eventually(t, func() bool {
		snap, ok := watcher.Last()
		if !ok {
			return false
		}
		one, _ := snap.Seat("seat1")
		three, _ := snap.Seat("seat3")
		return one.Taken && three.Taken
	}, 5*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		return ts.Rounds("main") >= 1
	}, 20*time.Second, 50*time.Millisecond)

	screen := view.View()
	assert.Contains(t, screen, "dicetable · main")
	assert.Contains(t, screen, "Min bet: 10")
	assert.Greater(t, watcher.States(), 3)
}

func TestContestedSeatIsDenied(t *testing.T) {
	t.Parallel()

	ts := startTestServer(t, FastConfig, 9)
	first := connectTestClient(t, ts, "main")
	second := connectTestClient(t, ts, "main")
	require.NoError(t, first.Join(0))
	require.NoError(t, second.Join(0))

	require.NoError(t, first.ClaimSeat("seat1"))
	require.Eventually(t, func() bool {
		snap, ok := second.Last()
		seat, _ := snap.Seat("seat1")
		return ok && seat.Taken
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, second.ClaimSeat("seat1"))
	require.Eventually(t, func() bool {
		return len(second.Denied()) == 1
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"seat1"}, second.Denied())
	assert.Empty(t, first.Denied())
}

func TestAbandonedSeatIsEvicted(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end test in short mode")
	}
	t.Parallel()

	ts := startTestServer(t, `
timing {
  tick_interval     = "100ms"
  heartbeat_timeout = "1s"
}
`, 11)
	watcher := connectTestClient(t, ts, "lobby")
	leaver := connectTestClient(t, ts, "lobby")
	require.NoError(t, watcher.Join(0))
	require.NoError(t, leaver.Join(0))
	require.NoError(t, leaver.ClaimSeat("seat1"))

	require.Eventually(t, func() bool {
		snap, ok := watcher.Last()
		seat, _ := snap.Seat("seat1")
		return ok && seat.Taken
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, leaver.Close())

	// The seat outlives the connection until the heartbeat timeout.
	snap := ts.Room(t, "lobby").Snapshot()
	seat, ok := snap.Seat("seat1")
	require.True(t, ok)
	assert.True(t, seat.Taken)

	require.Eventually(t, func() bool {
		seat, _ := ts.Room(t, "lobby").Snapshot().Seat("seat1")
		return !seat.Taken
	}, 5*time.Second, 50*time.Millisecond)
}

func TestTablesEndpointListsLiveTables(t *testing.T) {
	t.Parallel()

	ts := startTestServer(t, FastConfig, 5)
	c := connectTestClient(t, ts, "side")
	require.NoError(t, c.Join(25))
	require.Eventually(t, func() bool {
		_, ok := c.Last()
		return ok
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(ts.URL + "/tables")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tables []server.TableSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tables))
	require.Len(t, tables, 2)
	assert.Equal(t, "main", tables[0].ID)
	assert.Equal(t, int64(10), tables[0].MinBet)
	assert.Equal(t, "side", tables[1].ID)
	assert.Equal(t, int64(25), tables[1].MinBet)
	assert.Equal(t, 1, tables[1].Subscribers)
}
