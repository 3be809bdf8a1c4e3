package server

import "time"

// DefaultTicksPerSecond 世界推进频率（20 TPS）
const DefaultTicksPerSecond = 20

func (r *Room) tickInterval() time.Duration {
	tps := r.cfg.Server.TicksPerSecond
	if tps <= 0 {
		tps = DefaultTicksPerSecond
	}
	return time.Second / time.Duration(tps)
}

// StartTicker 启动房间的 Tick 循环（单线程推进世界）
func (r *Room) StartTicker() {
	if r.tickerStarted {
		return
	}
	r.tickerStarted = true
	go func() {
		ticker := time.NewTicker(r.tickInterval())
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.tick()
			}
		}
	}()
}

// Stop 结束 Tick 循环
func (r *Room) Stop() {
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}

// tick 核心循环：处理输入 → 更新世界 → 广播结果
func (r *Room) tick() {
	start := time.Now()
	r.BeginTick()
	r.ProcessInputs()
	r.UpdateWorld()
	r.BroadcastDelta()
	r.metrics.AddTick(time.Since(start).Nanoseconds())
}
