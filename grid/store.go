package grid

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

var (
	// ErrLevelLoad 关卡文件缺失或不可读
	ErrLevelLoad = errors.New("level load failure")
	// ErrEmptyFoodPool 没有可放置食物的地板格
	ErrEmptyFoodPool = errors.New("empty food pool")
)

// DefaultPattern 关卡文件名模板
const DefaultPattern = "Level%d.txt"

// Store 按编号定位关卡文件
type Store struct {
	Dir     string
	Pattern string
}

// NewStore 以目录创建关卡仓库
func NewStore(dir string) *Store {
	return &Store{Dir: dir, Pattern: DefaultPattern}
}

// Path 编号对应的文件路径
func (s *Store) Path(index int) string {
	return filepath.Join(s.Dir, fmt.Sprintf(s.Pattern, index))
}

// Exists 只检查文件是否存在，无副作用
func (s *Store) Exists(index int) bool {
	fi, err := os.Stat(s.Path(index))
	return err == nil && !fi.IsDir()
}

// Load 读取并解析关卡；失败时返回包装后的 ErrLevelLoad
func (s *Store) Load(index int) (*Level, error) {
	path := s.Path(index)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(ErrLevelLoad, "open %s: %v", path, err)
	}
	defer f.Close()

	lv, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(ErrLevelLoad, "parse %s: %v", path, err)
	}
	lv.Index = index
	return lv, nil
}
