package flow

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// levels 可配置存在 / 加载失败的假关卡集
type levels struct {
	index   int
	exists  map[int]bool
	broken  map[int]bool
	spawned int
	loads   []int
}

func newLevels(n int) *levels {
	l := &levels{exists: map[int]bool{}, broken: map[int]bool{}}
	for i := 1; i <= n; i++ {
		l.exists[i] = true
	}
	return l
}

func (l *levels) LevelIndex() int { return l.index }
func (l *levels) LevelExists(index int) bool { return l.exists[index] }

func (l *levels) SpawnFood() error {
	l.spawned++
	return nil
}

func (l *levels) LoadLevel(index int) error {
	l.loads = append(l.loads, index)
	if !l.exists[index] || l.broken[index] {
		return errors.Errorf("level %d unavailable", index)
	}
	l.index = index
	return nil
}

type roster struct {
	second, ai bool
	respawns   int
	dead       map[string]bool
}

func newRoster() *roster { return &roster{dead: map[string]bool{}} }

func (r *roster) SetSecondPlayer(present bool) { r.second = present }
func (r *roster) SetAI(present bool) { r.ai = present }
func (r *roster) Respawn() { r.respawns++ }
func (r *roster) Eliminate(id string) { r.dead[id] = true }

func (r *roster) LiveHumans() int {
	n := 0
	if !r.dead["p1"] {
		n++
	}
	if r.second && !r.dead["p2"] {
		n++
	}
	return n
}

func setup(t *testing.T, levelCount int) (*Controller, *Session, *levels, *roster) {
	t.Helper()
	l, r := newLevels(levelCount), newRoster()
	c := NewController(l, r, nil)
	s := NewSession(0)
	require.NoError(t, c.Begin(s))
	require.Equal(t, MainMenu, s.State)
	require.Equal(t, 1, s.LevelIndex)
	return c, s, l, r
}

func TestDepthVariantMapping(t *testing.T) {
	for _, base := range []GameType{SinglePlayer, PvP, Coop, PvAI, CoopAI} {
		d := ToDepthVariant(base)
		assert.True(t, d.IsDepth(), base.String())
		assert.Equal(t, d, ToDepthVariant(d), "idempotent")
		assert.Equal(t, base, ToBaseVariant(d))
		assert.Equal(t, base, ToBaseVariant(base))
		assert.Equal(t, base.SeparateCounters(), d.SeparateCounters())
		assert.Equal(t, base.SnakeCount(), d.SnakeCount())
	}
}

func TestParseGameType(t *testing.T) {
	gt, err := ParseGameType(" PvAI_Depth ")
	require.NoError(t, err)
	assert.Equal(t, PvAIDepth, gt)

	_, err = ParseGameType("battle royale")
	assert.Error(t, err)
}

func TestControllerTag_AICountsAsSecond(t *testing.T) {
	assert.Equal(t, 0, Human(0).CounterID())
	assert.Equal(t, 1, Human(1).CounterID())
	assert.Equal(t, 1, AI().CounterID())
	assert.True(t, AI().IsAI())
}

func TestSelectGameType_SpawnsEntities(t *testing.T) {
	cases := []struct {
		gt         GameType
		second, ai bool
	}{
		{SinglePlayer, false, false},
		{PvP, true, false},
		{CoopDepth, true, false},
		{PvAI, false, true},
		{CoopAI, false, true},
	}
	for _, tc := range cases {
		c, s, _, r := setup(t, 1)
		require.NoError(t, c.SelectGameType(s, tc.gt))
		assert.Equal(t, Playing, s.State, tc.gt.String())
		assert.Equal(t, tc.second, r.second, tc.gt.String())
		assert.Equal(t, tc.ai, r.ai, tc.gt.String())
	}

	c, s, _, _ := setup(t, 1)
	require.NoError(t, c.SelectGameType(s, Coop))
	err := c.SelectGameType(s, PvP)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, Coop, s.Type)
}

func TestTogglePause(t *testing.T) {
	c, s, _, _ := setup(t, 1)
	assert.False(t, c.TogglePause(s), "ignored in main menu")

	var seen [][2]State
	c.OnStateChange(func(from, to State) { seen = append(seen, [2]State{from, to}) })
	require.NoError(t, c.SelectGameType(s, SinglePlayer))
	assert.True(t, c.TogglePause(s))
	assert.Equal(t, Paused, s.State)
	assert.True(t, c.TogglePause(s))
	assert.Equal(t, Playing, s.State)
	assert.Equal(t, [][2]State{{MainMenu, Playing}, {Playing, Paused}, {Paused, Playing}}, seen)
}

func TestOnAppleEaten_AdvancesToNextLevel(t *testing.T) {
	c, s, l, r := setup(t, 2)
	require.NoError(t, c.SelectGameType(s, SinglePlayer))
	spawnedAtStart := l.spawned

	for i := 0; i < 4; i++ {
		require.NoError(t, c.OnAppleEaten(s, 0))
		assert.Equal(t, Playing, s.State)
	}
	assert.Equal(t, spawnedAtStart+4, l.spawned, "food respawns before the quota")
	assert.Equal(t, 1, s.LevelIndex)

	var seen []State
	c.OnStateChange(func(_, to State) { seen = append(seen, to) })
	require.NoError(t, c.OnAppleEaten(s, 0))

	assert.Equal(t, []State{Paused, Playing}, seen)
	assert.Equal(t, 2, s.LevelIndex)
	assert.Equal(t, 2, l.index)
	assert.Zero(t, s.ApplesEaten, "counter resets on the new level")
	assert.Equal(t, 5, s.TotalApples[0])
	assert.Equal(t, 5, s.Score)
	assert.Equal(t, 1, r.respawns)
	assert.Equal(t, spawnedAtStart+5, l.spawned)
}

func TestOnAppleEaten_LastLevelEndsInOutro(t *testing.T) {
	c, s, l, _ := setup(t, 1)
	require.NoError(t, c.SelectGameType(s, ToDepthVariant(SinglePlayer)))

	var seen []State
	c.OnStateChange(func(_, to State) { seen = append(seen, to) })
	for i := 0; i < 5; i++ {
		require.NoError(t, c.OnAppleEaten(s, 0))
	}
	assert.Equal(t, []State{Paused, Outro}, seen)
	assert.Equal(t, Outro, s.State)
	assert.Equal(t, 1, l.index, "current level stays loaded")

	err := c.OnAppleEaten(s, 0)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestOnAppleEaten_BrokenNextLevelEndsInOutro(t *testing.T) {
	c, s, l, _ := setup(t, 2)
	l.broken[2] = true
	require.NoError(t, c.SelectGameType(s, Coop))
	for i := 0; i < 5; i++ {
		require.NoError(t, c.OnAppleEaten(s, i%2))
	}
	assert.Equal(t, Outro, s.State)
	assert.Equal(t, 1, l.index)
	assert.Equal(t, []int{1, 2}, l.loads)
}

func TestOnAppleEaten_SeparateCountersInVersus(t *testing.T) {
	c, s, _, _ := setup(t, 2)
	require.NoError(t, c.SelectGameType(s, PvP))

	for i := 0; i < 2; i++ {
		require.NoError(t, c.OnAppleEaten(s, 0))
		require.NoError(t, c.OnAppleEaten(s, 1))
	}
	assert.Equal(t, [2]int{2, 2}, s.LevelApples)
	assert.Equal(t, 4, s.EatenThisLevel())
	assert.Equal(t, 1, s.LevelIndex)

	require.NoError(t, c.OnAppleEaten(s, 0))
	assert.Equal(t, 2, s.LevelIndex, "three plus two apples clear the level")
	assert.Equal(t, Playing, s.State)
	assert.Equal(t, [2]int{3, 2}, s.TotalApples)
	assert.Equal(t, [2]int{}, s.LevelApples)

	err := c.OnAppleEaten(s, 3)
	assert.True(t, errors.Is(err, ErrUnknownController))
}

func TestOnAppleEaten_AICountsTowardsVersusTotal(t *testing.T) {
	c, s, _, _ := setup(t, 2)
	require.NoError(t, c.SelectGameType(s, PvAI))
	for i := 0; i < 4; i++ {
		require.NoError(t, c.OnAppleEaten(s, AI().CounterID()))
	}
	require.NoError(t, c.OnAppleEaten(s, 0))
	assert.Equal(t, 2, s.LevelIndex)
	assert.Equal(t, [2]int{1, 4}, s.TotalApples)
}

func TestOnAppleEaten_SharedCounterInCoop(t *testing.T) {
	c, s, _, _ := setup(t, 2)
	require.NoError(t, c.SelectGameType(s, Coop))
	for i := 0; i < 4; i++ {
		require.NoError(t, c.OnAppleEaten(s, i%2))
	}
	assert.Equal(t, 4, s.ApplesEaten)
	require.NoError(t, c.OnAppleEaten(s, 1))
	assert.Equal(t, 2, s.LevelIndex)
}

func TestOnBodyCollision(t *testing.T) {
	c, s, _, _ := setup(t, 1)
	c.OnBodyCollision(s, "p1")
	assert.Equal(t, MainMenu, s.State, "ignored outside play")
	require.NoError(t, c.SelectGameType(s, SinglePlayer))
	c.OnBodyCollision(s, "p1")
	assert.Equal(t, Outro, s.State)

	c, s, _, r := setup(t, 1)
	require.NoError(t, c.SelectGameType(s, PvAI))
	c.OnBodyCollision(s, "ai")
	assert.Equal(t, Playing, s.State, "losing the AI does not end the game")
	assert.True(t, r.dead["ai"])
	c.OnBodyCollision(s, "p1")
	assert.Equal(t, Outro, s.State)

	c, s, _, _ = setup(t, 1)
	require.NoError(t, c.SelectGameType(s, PvP))
	c.OnBodyCollision(s, "p2")
	assert.Equal(t, Playing, s.State)
	c.OnBodyCollision(s, "p1")
	assert.Equal(t, Outro, s.State)
}

func TestReset(t *testing.T) {
	c, s, l, r := setup(t, 2)
	require.NoError(t, c.SelectGameType(s, PvP))
	for i := 0; i < 5; i++ {
		require.NoError(t, c.OnAppleEaten(s, 0))
	}
	require.Equal(t, 2, s.LevelIndex)

	require.NoError(t, c.Reset(s))
	assert.Equal(t, MainMenu, s.State)
	assert.Equal(t, 1, s.LevelIndex)
	assert.Equal(t, 1, l.index)
	assert.Zero(t, s.Score)
	assert.Equal(t, [2]int{}, s.TotalApples)
	assert.False(t, r.second)
	assert.False(t, r.ai)
}
