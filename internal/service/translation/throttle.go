package translation

import (
	"time"

	"golang.org/x/time/rate"
)

// renderThrottle 流式刷新限频
//
// 窗口内首次刷新立即执行；被跳过的刷新在窗口结束时补发一次，保证最新文本最终可见。
// 所有方法需在持有 Session.mu 时调用，补发回调自行加锁。
type renderThrottle struct {
	interval time.Duration
	limiter  rate.Sometimes
	timer    *time.Timer
}

func newRenderThrottle(interval time.Duration) *renderThrottle {
	return &renderThrottle{
		interval: interval,
		limiter:  rate.Sometimes{Interval: interval},
	}
}

// do 立即执行 render，或在被限频时安排一次 trailing 补发
func (t *renderThrottle) do(render func(), trailing func()) {
	ran := false
	t.limiter.Do(func() {
		ran = true
		render()
	})
	if ran || t.timer != nil {
		return
	}
	t.timer = time.AfterFunc(t.interval, trailing)
}

// fired 补发回调开始执行时调用
func (t *renderThrottle) fired() {
	t.timer = nil
}

// stop 取消未触发的补发
func (t *renderThrottle) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
