/*
 * @Description: 粘贴任务深链接的异步改写
 * @Author: 安知鱼
 * @Date: 2025-09-01 15:24:08
 * @LastEditTime: 2025-09-01 15:24:15
 * @LastEditors: 安知鱼
 */
package utility

import (
	"context"
	"log"
	"regexp"
	"time"

	"github.com/anzhiyu-c/taskchat/pkg/domain/repository"
)

// 粘贴进来的任务深链接形态，命中才值得一次后端往返
var pastedTaskLinkRegex = regexp.MustCompile(`https?://[^\s<"']+\?[^\s<"']*taskId=[^\s<"']+|/[\w\-/]*\?[^\s<"']*taskId=[^\s<"']+`)

// LinkTransformWatcher 监听撰写内容的变化，检测其中粘贴的任务深链接，
// 通过协作方服务把它们异步改写为规范形式。改写调用走尾沿防抖，
// 快速输入期间不会产生多余的后端往返。
type LinkTransformWatcher struct {
	api       repository.ChatAPI
	debouncer *Debouncer

	// OnTransformed 在改写成功后被调用，入参是改写后的完整内容。
	// 监听器关闭后迟到的结果会被静默丢弃。
	OnTransformed func(message string)
}

// NewLinkTransformWatcher 创建监听器。回复撰写框使用 ~100ms 的防抖窗口。
func NewLinkTransformWatcher(api repository.ChatAPI, window time.Duration, onTransformed func(string)) *LinkTransformWatcher {
	return &LinkTransformWatcher{
		api:           api,
		debouncer:     NewDebouncer(window),
		OnTransformed: onTransformed,
	}
}

// OnInput 在每次内容变化时调用。不含任务深链接的内容直接忽略。
// 改写失败只记录日志：这是尽力而为的增强，不阻塞撰写。
func (w *LinkTransformWatcher) OnInput(ctx context.Context, message string) {
	if !pastedTaskLinkRegex.MatchString(message) {
		return
	}
	w.debouncer.Do(func() {
		transformed, err := w.api.TransformMessage(ctx, message)
		if err != nil {
			log.Printf("警告：任务链接改写失败: %v", err)
			return
		}
		if w.OnTransformed != nil {
			w.OnTransformed(transformed)
		}
	})
}

// Close 取消挂起的防抖计时器。组件卸载时调用。
func (w *LinkTransformWatcher) Close() {
	w.debouncer.Cancel()
}
