/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-09-01 10:44:31
 * @LastEditTime: 2025-09-01 10:44:37
 * @LastEditors: 安知鱼
 */
package constant

import "errors"

// 定义业务逻辑相关的标准错误
var (
	// ErrEmptyDraft 表示草稿去除标签和实体后没有任何有效内容，本地拦截，不发请求
	ErrEmptyDraft = errors.New("评论内容不能为空")

	// ErrMaxDepthReached 表示已到达配置的最大回复层级，不再提供回复入口
	ErrMaxDepthReached = errors.New("已达到最大回复层级")

	// ErrCommentNotFound 表示评论不在当前评论树中
	ErrCommentNotFound = errors.New("评论不存在")

	// ErrPinDepth 表示只有顶级评论可以置顶
	ErrPinDepth = errors.New("只有顶级评论可以置顶")

	// ErrRateLimited 表示本地限流器拒绝了这次操作
	ErrRateLimited = errors.New("操作太频繁了，请稍后再试")

	// ErrNotConfirmed 表示删除操作未经过确认阶段
	ErrNotConfirmed = errors.New("删除操作需要先确认")
)
