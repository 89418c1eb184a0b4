/*
 * @Description: 相对时间标签
 * @Author: 安知鱼
 * @Date: 2025-09-01 15:03:46
 * @LastEditTime: 2025-09-01 15:03:52
 * @LastEditors: 安知鱼
 */
package utility

import (
	"fmt"
	"time"
)

// RelativeTime 把时间戳转换为粗粒度的人类可读标签。
// 档位：<10秒 "刚刚"；<60秒 "N 秒前"；<60分钟 "N 分钟前"；<24小时 "N 小时前"；
// <30天 "N 天前"；<365天 "N 个月前"；其余 "N 年前"。
// 时钟回拨（负差值）和零值时间一律收敛为"刚刚"，从不报错。
func RelativeTime(ts, now time.Time) string {
	if ts.IsZero() {
		return "刚刚"
	}
	delta := now.Sub(ts)
	switch {
	case delta < 10*time.Second:
		return "刚刚"
	case delta < time.Minute:
		return fmt.Sprintf("%d 秒前", int(delta.Seconds()))
	case delta < time.Hour:
		return fmt.Sprintf("%d 分钟前", int(delta.Minutes()))
	case delta < 24*time.Hour:
		return fmt.Sprintf("%d 小时前", int(delta.Hours()))
	case delta < 30*24*time.Hour:
		return fmt.Sprintf("%d 天前", int(delta.Hours()/24))
	case delta < 365*24*time.Hour:
		return fmt.Sprintf("%d 个月前", int(delta.Hours()/24/30))
	default:
		return fmt.Sprintf("%d 年前", int(delta.Hours()/24/365))
	}
}

// LikeLabel 是点赞控件旁使用的变体：一分钟以内一律显示"刚刚"，
// 避免秒级数字每次刷新都在跳动。
func LikeLabel(ts, now time.Time) string {
	if !ts.IsZero() && now.Sub(ts) < time.Minute {
		return "刚刚"
	}
	return RelativeTime(ts, now)
}
