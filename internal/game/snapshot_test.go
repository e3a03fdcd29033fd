package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotHidesConnections(t *testing.T) {
	tbl := newTestTable(t, dice(1))
	require.NoError(t, tbl.Claim("secret-conn-a", "seat2", epoch))
	require.NoError(t, tbl.Claim("secret-conn-b", "seat5", epoch))
	tbl.Join("secret-watcher", epoch)

	snap := tbl.Snapshot()
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	s2, ok := snap.Seat("seat2")
	require.True(t, ok)
	assert.True(t, s2.Taken)
	s1, _ := snap.Seat("seat1")
	assert.False(t, s1.Taken)
	assert.Len(t, snap.Seats, 7)
}

func TestSnapshotPointIsNullOnComeOut(t *testing.T) {
	tbl := newTestTable(t, dice(2, 2))
	seat(t, tbl, "seat1", "seat2")

	raw, err := json.Marshal(tbl.Snapshot())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"point":null`)

	roll(t, tbl)
	snap := tbl.Snapshot()
	require.NotNil(t, snap.Point)
	assert.Equal(t, 4, *snap.Point)
	assert.Equal(t, [2]int{2, 2}, snap.Dice)
}

func TestSnapshotRollWindowFlags(t *testing.T) {
	tbl := newTestTable(t, dice(1))
	seat(t, tbl, "seat1", "seat2")
	assert.False(t, tbl.Snapshot().RollWindowOpen)

	openWindow(t, tbl)
	snap := tbl.Snapshot()
	assert.True(t, snap.RollWindowOpen)
	assert.Equal(t, PhaseRollWindow, snap.Phase)
	assert.Equal(t, 2, snap.RollCountdown)

	_, err := tbl.RequestRoll("conn-seat1", "seat1")
	require.NoError(t, err)
	snap = tbl.Snapshot()
	assert.False(t, snap.RollWindowOpen)
	assert.True(t, snap.Rolling)
	assert.Equal(t, PhaseRolling, snap.Phase)
}
