/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-09-01 17:10:05
 * @LastEditTime: 2025-09-01 17:10:11
 * @LastEditors: 安知鱼
 */
package strutil

import "unicode/utf8"

// Ellipsis 是截断后的摘要统一追加的后缀。
const Ellipsis = "…"

// Truncate 把UTF-8字符串按字符数截断到 maxLength，超长时追加省略号。
// 评论摘要（命令行回执等）统一走这里，多字节字符不会被截成乱码。
func Truncate(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLength]) + Ellipsis
}
