// pkg/service/mutation/focus.go
package mutation

import (
	"context"
	"time"
)

// Composer 是可编辑表面的最小句柄。句柄在撰写器挂载后解析一次，
// 聚焦逻辑不关心其具体实现。
type Composer interface {
	// Mounted 报告撰写器是否已出现在渲染树中。
	Mounted() bool
	// FocusEnd 聚焦撰写器并把光标移动到内容末尾。
	FocusEnd()
}

// FocusWithRetry 在渐增的延迟下尽力聚焦撰写器。
// 插入链接或提交回复之后，目标编辑表面可能还没完成挂载，
// 所以这里按 base、2*base、3*base…的间隔最多重试 attempts 次。
// 这是尽力而为的补偿，不构成正确性保证；上下文取消时立即放弃。
func FocusWithRetry(ctx context.Context, composer Composer, attempts int, base time.Duration) {
	if composer == nil || attempts <= 0 {
		return
	}
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	go func() {
		for i := 1; i <= attempts; i++ {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(i) * base):
			}
			if composer.Mounted() {
				composer.FocusEnd()
				return
			}
		}
	}()
}
