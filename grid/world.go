package grid

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// World 当前关卡与食物槽位。单线程 Tick 中使用，不加锁。
type World struct {
	store *Store
	level *Level
	index int
	food  []Tile // 至多一个
	rng   *rand.Rand
	log   *zap.SugaredLogger
}

// NewWorld 创建世界；seed 决定食物落点序列
func NewWorld(store *Store, seed uint64, log *zap.SugaredLogger) *World {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &World{
		store: store,
		rng:   rand.New(rand.NewSource(seed)),
		log:   log,
	}
}

// Level 当前关卡，未加载时为 nil
func (w *World) Level() *Level { return w.level }

// LevelIndex 当前关卡编号，未加载时为 0
func (w *World) LevelIndex() int { return w.index }

// LevelExists 纯存在性检查
func (w *World) LevelExists(index int) bool {
	return w.store.Exists(index)
}

// LoadLevel 加载关卡；成功时整体替换旧关卡并清空食物，失败时旧关卡保持生效
func (w *World) LoadLevel(index int) error {
	w.log.Infof("level load: attempting %s", w.store.Path(index))
	lv, err := w.store.Load(index)
	if err != nil {
		w.log.Warnf("level load failed, keeping level %d: %v", w.index, err)
		return err
	}
	w.level = lv
	w.index = index
	w.food = nil
	w.log.Infof("level %d loaded: %d rows, %d floors, %d walls, %d doors",
		index, lv.Rows, len(lv.floors), len(lv.walls), len(lv.doors))
	return nil
}

// IsWalkable O(1) 集合查询
func (w *World) IsWalkable(t Tile) bool {
	return w.level != nil && w.level.IsWalkable(t)
}

func (w *World) IsWall(t Tile) bool {
	return w.level != nil && w.level.IsWall(t)
}

// ChooseFoodTile 优先在四周全是地板的格子中均匀随机选择，没有则退回到全部地板格
func (w *World) ChooseFoodTile() (Tile, error) {
	if w.level == nil || len(w.level.floors) == 0 {
		return Tile{}, errors.WithStack(ErrEmptyFoodPool)
	}
	pool := w.level.enclosedFloors()
	if len(pool) == 0 {
		pool = w.level.floors
	}
	return pool[w.rng.Intn(len(pool))], nil
}

// SpawnFood 替换食物槽位中的食物
func (w *World) SpawnFood() error {
	t, err := w.ChooseFoodTile()
	if err != nil {
		w.log.Debugf("food spawn skipped: %v", err)
		return err
	}
	w.food = []Tile{t}
	w.log.Debugf("food spawned at %s", t)
	return nil
}

// Foods 当前存在的食物（0 或 1 个）
func (w *World) Foods() []Tile {
	return append([]Tile(nil), w.food...)
}

// ConsumeFood 若 t 处有食物则移除并返回 true
func (w *World) ConsumeFood(t Tile) bool {
	for i, f := range w.food {
		if f == t {
			w.food = append(w.food[:i], w.food[i+1:]...)
			return true
		}
	}
	return false
}
