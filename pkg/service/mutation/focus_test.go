package mutation

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// lazyComposer 在指定时刻之后才算挂载完成。
type lazyComposer struct {
	mountedAt time.Time
	focused   atomic.Bool
}

func (c *lazyComposer) Mounted() bool {
	return time.Now().After(c.mountedAt)
}

func (c *lazyComposer) FocusEnd() {
	c.focused.Store(true)
}

func TestFocusWithRetry_延迟挂载后聚焦(t *testing.T) {
	composer := &lazyComposer{mountedAt: time.Now().Add(30 * time.Millisecond)}

	FocusWithRetry(context.Background(), composer, 5, 20*time.Millisecond)

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if composer.focused.Load() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("撰写器挂载后应在重试窗口内被聚焦")
}

func TestFocusWithRetry_上下文取消后放弃(t *testing.T) {
	composer := &lazyComposer{mountedAt: time.Now().Add(10 * time.Millisecond)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	FocusWithRetry(ctx, composer, 5, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	if composer.focused.Load() {
		t.Error("上下文已取消时不应再聚焦")
	}
}

func TestFocusWithRetry_空句柄与零次数不出错(t *testing.T) {
	FocusWithRetry(context.Background(), nil, 3, 10*time.Millisecond)
	composer := &lazyComposer{}
	FocusWithRetry(context.Background(), composer, 0, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if composer.focused.Load() {
		t.Error("零次重试不应触发聚焦")
	}
}
