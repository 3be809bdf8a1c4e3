package server

import (
	"encoding/json"
	"net/http"
)

// settingsPatch 只包含需要修改的字段
type settingsPatch struct {
	Speed            *float64 `json:"speed,omitempty"`
	ApplesToFinish   *int     `json:"applesToFinish,omitempty"`
	MaxInputsPerTick *int     `json:"maxInputsPerTick,omitempty"`
}

// HandleAdminConfig 提供房间规则的读取与更新（热更新）
// GET /admin/config?room=room-1  返回当前规则
// POST /admin/config?room=room-1 以 JSON 载荷更新部分字段，下一次 Tick 生效
func (m *RoomManager) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	room, err := m.GetOrCreateRoom(r.URL.Query().Get("room"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, room.Settings())
	case http.MethodPost:
		var body settingsPatch
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		s := room.Settings()
		if body.Speed != nil {
			s.Speed = *body.Speed
		}
		if body.ApplesToFinish != nil {
			s.ApplesToFinish = *body.ApplesToFinish
		}
		if body.MaxInputsPerTick != nil {
			s.MaxInputsPerTick = *body.MaxInputsPerTick
		}
		if err := room.UpdateSettings(s); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m.log.Infof("config updated: room=%s speed=%.1f applesToFinish=%d maxInputsPerTick=%d",
			room.ID, s.Speed, s.ApplesToFinish, s.MaxInputsPerTick)
		writeJSON(w, map[string]any{"ok": true, "settings": s})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleMetrics 输出指定房间的运行指标
// GET /metrics?room=room-1
func (m *RoomManager) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	room, err := m.GetOrCreateRoom(r.URL.Query().Get("room"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{
		"room":    room.ID,
		"metrics": room.Metrics().Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
