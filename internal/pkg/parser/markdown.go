/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-09-01 11:05:40
 * @LastEditTime: 2025-09-01 11:05:46
 * @LastEditors: 安知鱼
 */
// internal/pkg/parser/markdown.go
package parser

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var mdParser goldmark.Markdown

func init() {
	// 初始化 Goldmark 解析器。命令行侧用它把 Markdown 草稿转换成 HTML，
	// 之后统一走管线净化，所以这里允许原始 HTML 透传。
	mdParser = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,           // 支持 GitHub Flavored Markdown
			extension.Strikethrough, // 删除线
			extension.TaskList,      // 任务列表
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(), // 硬换行
			html.WithXHTML(),     // 渲染为 XHTML
			html.WithUnsafe(),    // 信任原始 HTML，后续由净化管线清理
		),
	)
}

// MarkdownToHTML 将 Markdown 字符串转换为 HTML 字符串。
// 输出尚未净化，调用方必须再经过 pipeline.Sanitize。
func MarkdownToHTML(mdContent string) (string, error) {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(mdContent), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
