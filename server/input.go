package server

import (
	"strings"

	"github.com/pkg/errors"

	"snakegrid/flow"
	"snakegrid/grid"
)

// ErrBadInput 无法识别的输入消息
var ErrBadInput = errors.New("bad input")

// InputKind 输入类别
type InputKind uint8

const (
	InputMove InputKind = iota
	InputJump
	InputPause
	InputSelect
	InputRestart
)

// Input 客户端输入（意图），由服务端在 Tick 中解释并驱动世界状态
type Input struct {
	PlayerID PlayerID
	Kind     InputKind
	Dir      grid.Direction
	GameType flow.GameType
	Seq      int64 // 客户端本地序列号，用于去重
}

// InputMessage 入站 JSON 文本消息
// 示例：{"type":"move","command":"up","seq":12}、{"type":"select","command":"pvai"}
type InputMessage struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Seq     int64  `json:"seq,omitempty"`
}

// parseInput 把消息翻译为 Input；方向或玩法无法识别时返回 ErrBadInput
func parseInput(pid PlayerID, im InputMessage) (Input, error) {
	in := Input{PlayerID: pid, Seq: im.Seq, Dir: grid.None}
	switch strings.ToLower(im.Type) {
	case "move":
		in.Kind = InputMove
		in.Dir = grid.ParseDirection(strings.ToLower(im.Command))
		if in.Dir == grid.None {
			return in, errors.Wrapf(ErrBadInput, "direction %q", im.Command)
		}
	case "jump":
		in.Kind = InputJump
	case "pause":
		in.Kind = InputPause
	case "select":
		gt, err := flow.ParseGameType(im.Command)
		if err != nil {
			return in, errors.Wrap(ErrBadInput, err.Error())
		}
		in.Kind = InputSelect
		in.GameType = gt
	case "restart":
		in.Kind = InputRestart
	default:
		return in, errors.Wrapf(ErrBadInput, "type %q", im.Type)
	}
	return in, nil
}
