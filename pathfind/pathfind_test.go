package pathfind

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zyedidia/generic/mapset"

	"snakegrid/grid"
)

// board 矩形开放网格，可选墙与食物
type board struct {
	rows, cols int
	walls      mapset.Set[grid.Tile]
	foods      []grid.Tile
}

func newBoard(rows, cols int) *board {
	return &board{rows: rows, cols: cols, walls: mapset.New[grid.Tile]()}
}

func (b *board) IsWalkable(t grid.Tile) bool {
	return t.Row >= 0 && t.Row < b.rows && t.Col >= 0 && t.Col < b.cols && !b.walls.Has(t)
}

func (b *board) Foods() []grid.Tile { return b.foods }

// snake 只记录朝向与身体的假 Steerable
type snake struct {
	tile    grid.Tile
	heading grid.Direction
	body    []grid.Tile
	steered []grid.Direction
}

func (s *snake) Tile() grid.Tile { return s.tile }
func (s *snake) Heading() grid.Direction { return s.heading }
func (s *snake) BodyTiles() []grid.Tile { return s.body }
func (s *snake) Steer(d grid.Direction) bool {
	s.steered = append(s.steered, d)
	s.heading = d
	return true
}

func manhattan(a, b grid.Tile) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

func assertValidPath(t *testing.T, path []grid.Tile, start, goal grid.Tile, blocked mapset.Set[grid.Tile], w Walkable) {
	t.Helper()
	require.NotEmpty(t, path)
	assert.Equal(t, start, path[0])
	assert.Equal(t, goal, path[len(path)-1])
	for i := 1; i < len(path); i++ {
		assert.Equal(t, 1, manhattan(path[i-1], path[i]), "step %d is not adjacent", i)
		assert.True(t, w.IsWalkable(path[i]))
		assert.False(t, blocked.Has(path[i]), "path crosses blocked tile %s", path[i])
	}
}

// reachable 独立的洪水填充，用来判断起点终点是否连通
func reachable(start, goal grid.Tile, blocked mapset.Set[grid.Tile], w Walkable) bool {
	seen := mapset.New[grid.Tile]()
	seen.Put(start)
	stack := []grid.Tile{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == goal {
			return true
		}
		for _, n := range cur.Neighbors() {
			if !seen.Has(n) && w.IsWalkable(n) && !blocked.Has(n) {
				seen.Put(n)
				stack = append(stack, n)
			}
		}
	}
	return false
}

func TestFindPath_OpenGridIsManhattanOptimal(t *testing.T) {
	b := newBoard(12, 9)
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		start := grid.Tile{Row: rng.Intn(b.rows), Col: rng.Intn(b.cols)}
		goal := grid.Tile{Row: rng.Intn(b.rows), Col: rng.Intn(b.cols)}
		path, err := FindPath(start, goal, mapset.New[grid.Tile](), b)
		require.NoError(t, err)
		assert.Len(t, path, manhattan(start, goal)+1, "%s -> %s", start, goal)
	}
}

func TestFindPath_NeverCrossesBlockedTiles(t *testing.T) {
	b := newBoard(10, 10)
	rng := rand.New(rand.NewSource(7))
	found := 0
	for i := 0; i < 300; i++ {
		start := grid.Tile{Row: rng.Intn(10), Col: rng.Intn(10)}
		goal := grid.Tile{Row: rng.Intn(10), Col: rng.Intn(10)}
		blocked := mapset.New[grid.Tile]()
		for j := 0; j < 30; j++ {
			bt := grid.Tile{Row: rng.Intn(10), Col: rng.Intn(10)}
			if bt != start && bt != goal {
				blocked.Put(bt)
			}
		}

		path, err := FindPath(start, goal, blocked, b)
		if reachable(start, goal, blocked, b) {
			require.NoError(t, err)
			assertValidPath(t, path, start, goal, blocked, b)
			found++
		} else {
			assert.True(t, errors.Is(err, ErrPathNotFound))
		}
	}
	assert.NotZero(t, found)
}

func TestFindPath_Failures(t *testing.T) {
	b := newBoard(5, 5)
	b.walls.Put(grid.Tile{Row: 4, Col: 4})

	_, err := FindPath(grid.Tile{}, grid.Tile{Row: 4, Col: 4}, mapset.New[grid.Tile](), b)
	assert.True(t, errors.Is(err, ErrInvalidGoal))

	_, err = FindPath(grid.Tile{}, grid.Tile{Row: 9, Col: 9}, mapset.New[grid.Tile](), b)
	assert.True(t, errors.Is(err, ErrInvalidGoal), "off-grid goal")

	// 目标被身体围住
	blocked := mapset.New[grid.Tile]()
	for _, n := range (grid.Tile{Row: 2, Col: 2}).Neighbors() {
		blocked.Put(n)
	}
	_, err = FindPath(grid.Tile{}, grid.Tile{Row: 2, Col: 2}, blocked, b)
	assert.True(t, errors.Is(err, ErrPathNotFound))
}

func TestFindPath_StartEqualsGoal(t *testing.T) {
	b := newBoard(3, 3)
	path, err := FindPath(grid.Tile{Row: 1, Col: 1}, grid.Tile{Row: 1, Col: 1}, mapset.Set[grid.Tile]{}, b)
	require.NoError(t, err)
	assert.Equal(t, []grid.Tile{{Row: 1, Col: 1}}, path)
}

func TestStepDirection(t *testing.T) {
	o := grid.Tile{Row: 5, Col: 5}
	cases := []struct {
		to   grid.Tile
		want grid.Direction
	}{
		{grid.Tile{Row: 6, Col: 5}, grid.Up},
		{grid.Tile{Row: 4, Col: 5}, grid.Down},
		{grid.Tile{Row: 5, Col: 6}, grid.Right},
		{grid.Tile{Row: 5, Col: 4}, grid.Left},
		{grid.Tile{Row: 9, Col: 6}, grid.Up},
		{o, grid.None},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StepDirection(o, c.to), "to %s", c.to)
	}
}

func TestNearest(t *testing.T) {
	_, ok := Nearest(grid.Tile{}, nil)
	assert.False(t, ok)

	got, ok := Nearest(grid.Tile{}, []grid.Tile{{Row: 3, Col: 3}, {Row: 0, Col: 4}, {Row: 4}})
	require.True(t, ok)
	assert.Equal(t, grid.Tile{Row: 0, Col: 4}, got, "ties keep the first nearest")
}

func TestAgent_RejectsReversalWithoutAborting(t *testing.T) {
	b := newBoard(10, 10)
	b.foods = []grid.Tile{{Row: 1, Col: 5}}
	s := &snake{tile: grid.Tile{Row: 5, Col: 5}, heading: grid.Up}

	plan := NewAgent(nil).OnTileEntered(s, b)
	assert.True(t, plan.Replanned)
	assert.Equal(t, grid.Down, plan.Dir)
	assert.False(t, plan.Committed)
	assert.Empty(t, s.steered)
	assert.Equal(t, grid.Up, s.heading)
}

func TestAgent_ReplansOncePerTile(t *testing.T) {
	b := newBoard(10, 10)
	b.foods = []grid.Tile{{Row: 5, Col: 9}}
	s := &snake{tile: grid.Tile{Row: 5, Col: 5}, heading: grid.None}
	a := NewAgent(nil)

	plan := a.OnTileEntered(s, b)
	require.True(t, plan.Committed)
	assert.Equal(t, []grid.Direction{grid.Right}, s.steered)

	again := a.OnTileEntered(s, b)
	assert.False(t, again.Replanned, "same tile is a no-op")
	assert.Len(t, s.steered, 1)

	s.tile = grid.Tile{Row: 5, Col: 6}
	next := a.OnTileEntered(s, b)
	assert.True(t, next.Replanned)
	assert.True(t, next.Committed)
	assert.Len(t, s.steered, 1, "same heading is not re-steered")
}

func TestAgent_NoFoodRetriesOnSameTile(t *testing.T) {
	b := newBoard(5, 5)
	s := &snake{tile: grid.Tile{Row: 2, Col: 2}}
	a := NewAgent(nil)

	assert.False(t, a.OnTileEntered(s, b).Replanned)
	b.foods = []grid.Tile{{Row: 2, Col: 4}}
	assert.True(t, a.OnTileEntered(s, b).Replanned)
}

func TestAgent_RoutesAroundOwnBody(t *testing.T) {
	b := newBoard(6, 6)
	b.foods = []grid.Tile{{Row: 3, Col: 4}}
	// 身体挡在右侧，头部所在格也在身体列表里但不算阻挡
	s := &snake{
		tile:    grid.Tile{Row: 3, Col: 2},
		heading: grid.Up,
		body:    []grid.Tile{{Row: 3, Col: 2}, {Row: 3, Col: 3}, {Row: 2, Col: 3}},
	}

	plan := NewAgent(nil).OnTileEntered(s, b)
	require.NoError(t, plan.Err)
	blocked := mapset.New[grid.Tile]()
	blocked.Put(grid.Tile{Row: 3, Col: 3})
	blocked.Put(grid.Tile{Row: 2, Col: 3})
	assertValidPath(t, plan.Path, s.tile, b.foods[0], blocked, b)
	assert.Equal(t, grid.Up, plan.Dir)
	assert.True(t, plan.Committed)
}

func TestAgent_HoldsHeadingWhenTrapped(t *testing.T) {
	b := newBoard(5, 5)
	b.foods = []grid.Tile{{Row: 0, Col: 0}}
	s := &snake{
		tile:    grid.Tile{Row: 2, Col: 2},
		heading: grid.Left,
		body:    []grid.Tile{{Row: 3, Col: 2}, {Row: 1, Col: 2}, {Row: 2, Col: 3}, {Row: 2, Col: 1}},
	}

	plan := NewAgent(nil).OnTileEntered(s, b)
	assert.True(t, errors.Is(plan.Err, ErrPathNotFound))
	assert.Equal(t, grid.Left, s.heading)
	assert.Empty(t, s.steered)
}
