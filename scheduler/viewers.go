package scheduler

import "sync"

// Viewers 显示的在线人数，不低于下限
type Viewers struct {
	mutex     sync.Mutex
	count     int
	floor     int
	listeners []func(int)
}

func NewViewers(initial, floor int) *Viewers {
	if initial < floor {
		initial = floor
	}
	return &Viewers{count: initial, floor: floor}
}

func (v *Viewers) OnChange(fn func(int)) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	v.listeners = append(v.listeners, fn)
}

// Nudge 调整人数并返回调整后的值
func (v *Viewers) Nudge(delta int) int {
	v.mutex.Lock()
	v.count += delta
	if v.count < v.floor {
		v.count = v.floor
	}
	count := v.count
	listeners := v.listeners
	v.mutex.Unlock()

	for _, fn := range listeners {
		fn(count)
	}
	return count
}

func (v *Viewers) Count() int {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.count
}
