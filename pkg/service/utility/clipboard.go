/*
 * @Description: 评论分享链接的剪贴板写入
 * @Author: 安知鱼
 * @Date: 2025-09-01 15:30:51
 * @LastEditTime: 2025-09-01 15:30:58
 * @LastEditors: 安知鱼
 */
package utility

import (
	"context"
	"fmt"

	"github.com/anzhiyu-c/taskchat/internal/pkg/parser"
	"github.com/anzhiyu-c/taskchat/pkg/domain/repository"
)

// Clipboard 抽象系统剪贴板。富文本写入不被支持时实现方返回错误，
// 调用方降级为纯文本。
type Clipboard interface {
	WriteHTML(html, plainFallback string) error
	WriteText(plain string) error
}

// LinkCopier 把一条评论的"格式化分享链接"写入剪贴板：
// 优先写入服务端返回的富文本 HTML，失败时退回去除标签后的纯文本。
type LinkCopier struct {
	api  repository.ChatAPI
	clip Clipboard
}

// NewLinkCopier 创建分享链接复制器。
func NewLinkCopier(api repository.ChatAPI, clip Clipboard) *LinkCopier {
	return &LinkCopier{api: api, clip: clip}
}

// CopyFormattedLink 获取评论的富文本分享链接并放入剪贴板。
func (l *LinkCopier) CopyFormattedLink(ctx context.Context, commentID, baseURL string) error {
	htmlContent, err := l.api.GetFormattedLink(ctx, commentID, baseURL)
	if err != nil {
		return fmt.Errorf("获取格式化分享链接失败: %w", err)
	}
	plain := parser.StripHTML(htmlContent)
	if err := l.clip.WriteHTML(htmlContent, plain); err != nil {
		return l.clip.WriteText(plain)
	}
	return nil
}
