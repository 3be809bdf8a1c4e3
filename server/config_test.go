package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"snakegrid/flow"
	"snakegrid/grid"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_OverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
server:
  addr: ":9090"
game:
  applesToFinish: 3
  depthLevel: true
  spawns:
    - {row: 2, col: 2}
    - {row: 5, col: 7}
motion:
  speed: 250
log:
  level: info
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 20, cfg.Server.TicksPerSecond, "unset fields keep defaults")
	assert.Equal(t, 3, cfg.Game.ApplesToFinish)
	assert.True(t, cfg.Game.DepthLevel)
	assert.Equal(t, []grid.Tile{{Row: 2, Col: 2}, {Row: 5, Col: 7}}, cfg.Game.Spawns)
	assert.Equal(t, 250.0, cfg.Motion.Speed)
	assert.Equal(t, 100.0, cfg.Motion.TileSize)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_ValidateCollectsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Addr = ""
	cfg.Server.TicksPerSecond = 0
	cfg.Game.Spawns = nil
	cfg.Motion.TileSize = 0
	cfg.Motion.HistorySpacing = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 5)
	assert.Contains(t, err.Error(), "server.addr")
	assert.Contains(t, err.Error(), "motion.historySpacing")
}

func TestInitLogger_RejectsUnknownLevel(t *testing.T) {
	cfg := DefaultConfig().Log
	cfg.Level = "chatty"
	assert.Error(t, InitLogger(cfg))
}

func TestParseInput(t *testing.T) {
	cases := []struct {
		msg  InputMessage
		want Input
	}{
		{InputMessage{Type: "move", Command: "UP", Seq: 4}, Input{PlayerID: "a", Kind: InputMove, Dir: grid.Up, Seq: 4}},
		{InputMessage{Type: "jump"}, Input{PlayerID: "a", Kind: InputJump, Dir: grid.None}},
		{InputMessage{Type: "pause"}, Input{PlayerID: "a", Kind: InputPause, Dir: grid.None}},
		{InputMessage{Type: "select", Command: "coop_depth"}, Input{PlayerID: "a", Kind: InputSelect, Dir: grid.None, GameType: flow.CoopDepth}},
		{InputMessage{Type: "Restart"}, Input{PlayerID: "a", Kind: InputRestart, Dir: grid.None}},
	}
	for _, c := range cases {
		got, err := parseInput("a", c.msg)
		require.NoError(t, err, c.msg.Type)
		assert.Equal(t, c.want, got, c.msg.Type)
	}

	for _, bad := range []InputMessage{
		{Type: "move", Command: "sideways"},
		{Type: "select", Command: "chess"},
		{Type: "teleport"},
	} {
		_, err := parseInput("a", bad)
		assert.True(t, errors.Is(err, ErrBadInput), "%+v", bad)
	}
}
