package mission

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"a2aclient/internal/store"
	"a2aclient/internal/types"
)

func testManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "a2a.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	m, err := Load(st)
	require.NoError(t, err)
	return m, st
}

func TestCreateActivatesAndPersists(t *testing.T) {
	m, st := testManager(t)

	var selected []types.Mission
	m.SetOnSelect(func(ms types.Mission) { selected = append(selected, ms) })

	ms := m.Create("Launch", "Ship the promo")
	assert.Equal(t, "Launch", ms.Name)
	assert.Contains(t, ms.ID, "mission_")

	active, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, ms.ID, active.ID)

	require.Len(t, selected, 1)
	assert.Equal(t, ms.ID, selected[0].ID)

	stored, found, err := st.GetMission(ms.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, ms, stored)
}

func TestCreateAvoidsIDCollision(t *testing.T) {
	m, _ := testManager(t)

	fixed := time.UnixMilli(1700000000000)
	m.SetClock(func() time.Time { return fixed })

	first := m.Create("One", "a")
	second := m.Create("Two", "b")

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, m.Missions(), 2)
}

func TestActiveIDWithoutSelection(t *testing.T) {
	m, _ := testManager(t)

	_, ok := m.ActiveID()
	assert.False(t, ok)
	_, ok = m.Active()
	assert.False(t, ok)
}

func TestLoadRestoresMissions(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "a2a.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.PutMission(types.Mission{ID: "mission_1", Name: "First"}))
	require.NoError(t, st.PutMission(types.Mission{ID: "mission_2", Name: "Second"}))

	m, err := Load(st)
	require.NoError(t, err)

	missions := m.Missions()
	require.Len(t, missions, 2)
	assert.Equal(t, "First", missions[0].Name)

	// Nothing is active until selection.
	_, ok := m.ActiveID()
	assert.False(t, ok)
}

func TestSelectSwitchesActive(t *testing.T) {
	m, _ := testManager(t)

	first := m.Create("One", "a")
	time.Sleep(2 * time.Millisecond)
	second := m.Create("Two", "b")

	id, ok := m.ActiveID()
	require.True(t, ok)
	assert.Equal(t, second.ID, id)

	m.Select(first)
	id, ok = m.ActiveID()
	require.True(t, ok)
	assert.Equal(t, first.ID, id)
}
