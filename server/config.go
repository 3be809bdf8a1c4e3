package server

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"snakegrid/grid"
	"snakegrid/motion"
)

// Config 服务整体配置，对应 config.yaml
type Config struct {
	Server ServerConfig  `yaml:"server"`
	Game   GameConfig    `yaml:"game"`
	Motion motion.Params `yaml:"motion"`
	Log    LogConfig     `yaml:"log"`
}

// ServerConfig 网络与 Tick
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	TicksPerSecond   int    `yaml:"ticksPerSecond"`
	MaxInputsPerTick int    `yaml:"maxInputsPerTick"`
	DefaultRoom      string `yaml:"defaultRoom"`
}

// GameConfig 关卡与规则
type GameConfig struct {
	LevelsDir      string `yaml:"levelsDir"`
	LevelPattern   string `yaml:"levelPattern"`
	ApplesToFinish int    `yaml:"applesToFinish"`
	// DepthLevel 为 true 时所选玩法自动切换为 Depth 变体
	DepthLevel bool   `yaml:"depthLevel"`
	Seed       uint64 `yaml:"seed"`
	// Spawns 一号玩家与二号玩家 / AI 的出生格，关卡中有门时优先使用门
	Spawns []grid.Tile `yaml:"spawns"`
}

// LogConfig 日志文件与滚动策略
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	Compress   bool   `yaml:"compress"`
}

// DefaultConfig 内置默认值，配置文件只需覆盖关心的字段
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:             ":8080",
			TicksPerSecond:   20,
			MaxInputsPerTick: 8,
			DefaultRoom:      "room-1",
		},
		Game: GameConfig{
			LevelsDir:      "levels",
			LevelPattern:   grid.DefaultPattern,
			ApplesToFinish: 5,
			Spawns:         []grid.Tile{{Row: 4, Col: 4}, {Row: 4, Col: 10}},
		},
		Motion: motion.DefaultParams(),
		Log: LogConfig{
			File:       "app.log",
			Level:      "debug",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// LoadConfig 在默认值之上叠加 YAML 文件；path 为空时直接返回默认值
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate 一次性收集所有非法字段
func (c Config) Validate() error {
	var err error
	check := func(ok bool, msg string) {
		if !ok {
			err = multierr.Append(err, errors.New(msg))
		}
	}
	check(c.Server.Addr != "", "server.addr is empty")
	check(c.Server.TicksPerSecond > 0, "server.ticksPerSecond must be positive")
	check(c.Server.MaxInputsPerTick > 0, "server.maxInputsPerTick must be positive")
	check(c.Server.DefaultRoom != "", "server.defaultRoom is empty")
	check(c.Game.LevelsDir != "", "game.levelsDir is empty")
	check(c.Game.ApplesToFinish > 0, "game.applesToFinish must be positive")
	check(len(c.Game.Spawns) >= 2, "game.spawns needs two tiles")
	err = multierr.Append(err, validateParams(c.Motion))
	return err
}

func validateParams(p motion.Params) error {
	var err error
	if p.TileSize <= 0 {
		err = multierr.Append(err, errors.New("motion.tileSize must be positive"))
	}
	if p.Speed < 0 {
		err = multierr.Append(err, errors.New("motion.speed must not be negative"))
	}
	if p.HistorySpacing < 1 {
		err = multierr.Append(err, errors.New("motion.historySpacing must be at least 1"))
	}
	if p.RecordDistance <= 0 {
		err = multierr.Append(err, errors.New("motion.recordDistance must be positive"))
	}
	if p.CollisionGrace < 0 {
		err = multierr.Append(err, errors.New("motion.collisionGrace must not be negative"))
	}
	return err
}
