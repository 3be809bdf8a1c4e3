package grid

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/zyedidia/generic/mapset"
)

// Kind 格子类型
type Kind uint8

const (
	Empty Kind = iota
	Wall
	Floor
	Door
)

func (k Kind) String() string {
	switch k {
	case Wall:
		return "wall"
	case Floor:
		return "floor"
	case Door:
		return "door"
	default:
		return "empty"
	}
}

// Level 一次关卡加载得到的完整拓扑；加载后不再修改，重载时整体替换
type Level struct {
	Index int
	Rows  int
	Cols  int

	kinds    map[Tile]Kind
	walkable mapset.Set[Tile]
	floors   []Tile // 食物候选，按文本顺序
	walls    []Tile
	doors    []Tile
}

// Parse 解析关卡文本：一行一排，'#' 墙，'.' 地板，'D' 门（可走并生成门），其他字符为空。
// 第 r 行（共 n 行）映射到 Row = n - r，文本首行位于最高处。
func Parse(r io.Reader) (*Level, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read level text")
	}

	lv := &Level{
		Rows:     len(lines),
		kinds:    make(map[Tile]Kind),
		walkable: mapset.New[Tile](),
	}
	for y, line := range lines {
		if len(line) > lv.Cols {
			lv.Cols = len(line)
		}
		for x := 0; x < len(line); x++ {
			t := Tile{Row: len(lines) - y, Col: x}
			switch line[x] {
			case '#':
				lv.kinds[t] = Wall
				lv.walls = append(lv.walls, t)
			case '.':
				lv.kinds[t] = Floor
				lv.walkable.Put(t)
				lv.floors = append(lv.floors, t)
			case 'D':
				lv.kinds[t] = Door
				lv.walkable.Put(t)
				lv.doors = append(lv.doors, t)
			}
		}
	}
	return lv, nil
}

// Kind 查询格子类型，未放置的格子为 Empty
func (l *Level) Kind(t Tile) Kind {
	return l.kinds[t]
}

// IsWalkable 地板或门
func (l *Level) IsWalkable(t Tile) bool {
	return l.walkable.Has(t)
}

func (l *Level) IsWall(t Tile) bool {
	return l.kinds[t] == Wall
}

// Floors 返回地板格副本
func (l *Level) Floors() []Tile {
	return append([]Tile(nil), l.floors...)
}

func (l *Level) Walls() []Tile {
	return append([]Tile(nil), l.walls...)
}

// Doors 门的生成点
func (l *Level) Doors() []Tile {
	return append([]Tile(nil), l.doors...)
}

// enclosedFloors 四个邻居都是地板的地板格
func (l *Level) enclosedFloors() []Tile {
	var out []Tile
	for _, t := range l.floors {
		enclosed := true
		for _, n := range t.Neighbors() {
			if l.kinds[n] != Floor {
				enclosed = false
				break
			}
		}
		if enclosed {
			out = append(out, t)
		}
	}
	return out
}
