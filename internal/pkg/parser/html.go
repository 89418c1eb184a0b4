/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-09-01 11:02:14
 * @LastEditTime: 2025-09-01 11:02:19
 * @LastEditors: 安知鱼
 */
package parser

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripTagsPolicy *bluemonday.Policy

func init() {
	// StripTagsPolicy 会移除所有的HTML标签
	stripTagsPolicy = bluemonday.StripTagsPolicy()
}

// StripHTML 接受一个HTML字符串，返回一个去除了所有标签的纯文本字符串。
func StripHTML(htmlContent string) string {
	return stripTagsPolicy.Sanitize(htmlContent)
}

// IsEffectivelyEmpty 判断一段富文本草稿是否"实际为空"：
// 去掉所有标签、解码实体、清理不换行空格之后没有任何残留文本。
// 只包含 <p></p>、&nbsp; 之类标记的草稿视为空，用于提交前的本地校验。
func IsEffectivelyEmpty(htmlContent string) bool {
	text := html.UnescapeString(StripHTML(htmlContent))
	text = strings.ReplaceAll(text, "\u00a0", " ")
	return strings.TrimSpace(text) == ""
}
