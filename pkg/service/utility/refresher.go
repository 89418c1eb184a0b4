/*
 * @Description: 相对时间标签的定时刷新器
 * @Author: 安知鱼
 * @Date: 2025-09-01 15:10:22
 * @LastEditTime: 2025-09-01 15:10:30
 * @LastEditors: 安知鱼
 */
package utility

import (
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/robfig/cron/v3"
)

// TimeRefresher 按固定间隔触发回调，让已渲染的相对时间标签重新计算。
type TimeRefresher struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewTimeRefresher 创建刷新器。spec 为空时默认每分钟触发一次。
// 回调里的 panic 会被捕获并记录，不会拖垮调度器。
func NewTimeRefresher(spec string, onTick func()) (*TimeRefresher, error) {
	if spec == "" {
		spec = "@every 1m"
	}
	slogHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger := slog.New(slogHandler).With("system", "cron")

	c := cron.New(cron.WithChain(
		newPanicRecoveryWrapper(logger),
	))
	if _, err := c.AddFunc(spec, onTick); err != nil {
		return nil, err
	}
	return &TimeRefresher{cron: c, logger: logger}, nil
}

// Start 启动刷新循环。
func (r *TimeRefresher) Start() {
	r.cron.Start()
}

// Stop 停止刷新循环，等待在途回调结束。
func (r *TimeRefresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// newPanicRecoveryWrapper 创建一个 panic 恢复装饰器。
// 回调发生 panic 时捕获并用结构化日志记录堆栈，调度循环继续运行。
func newPanicRecoveryWrapper(logger *slog.Logger) cron.JobWrapper {
	return func(j cron.Job) cron.Job {
		return cron.FuncJob(func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Job panicked",
						slog.Any("panic", r),
						slog.String("stack", string(debug.Stack())),
					)
				}
			}()
			j.Run()
		})
	}
}
