/*
 * @Description: 尾沿防抖
 * @Author: 安知鱼
 * @Date: 2025-09-01 15:18:40
 * @LastEditTime: 2025-09-01 15:18:46
 * @LastEditors: 安知鱼
 */
package utility

import (
	"sync"
	"time"
)

// Debouncer 把一阵密集的调用收敛为静默期后的一次触发（尾沿防抖）。
// 每次 Do 都会重置计时；只有最后一次传入的函数会被执行。
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	gen      uint64
	canceled bool
}

// NewDebouncer 创建防抖器。delay <= 0 时退化为 100ms。
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	return &Debouncer{delay: delay}
}

// Do 调度 fn 在静默期结束后执行，并取消之前尚未触发的调度。
// 已 Cancel 的防抖器上调用 Do 不产生任何效果。
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.canceled {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	// 代数标记挡住 Stop 晚于触发的竞争：已被取代的回调即使计时器抢先
	// 走完也不会执行
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		stale := d.canceled || gen != d.gen
		d.mu.Unlock()
		if stale {
			return
		}
		fn()
	})
}

// Cancel 停止尚未触发的调度并关闭防抖器。组件卸载时必须调用，
// 保证不会有迟到的回调落在已经不存在的节点上。
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.canceled = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
