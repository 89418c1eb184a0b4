/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-09-01 10:40:02
 * @LastEditTime: 2025-09-01 10:40:09
 * @LastEditors: 安知鱼
 */
// pkg/domain/repository/chat_api.go
package repository

import (
	"context"

	"github.com/anzhiyu-c/taskchat/pkg/domain/model"
)

// CreateReplyParams 是创建评论/回复的出站参数。
type CreateReplyParams struct {
	TaskID    string
	SenderID  string
	Message   string  // 已经过 linkify + 净化的最终内容
	ReplyToID *string // 顶级评论为 nil

	// MentionedEmails 为空时，实现方必须在请求体中整体省略该字段，
	// 而不是发送一个空数组。
	MentionedEmails []string
}

// UpdateCommentParams 是编辑评论的部分更新参数。
type UpdateCommentParams struct {
	Message         string
	Images          []string // 从编辑后内容中提取出的图片URL列表，可为空
	MentionedEmails []string // 同 CreateReplyParams，空时整体省略
}

// ChatAPI 定义了评论引擎对远端任务聊天服务的全部依赖。
// 传输细节（认证、序列化、基础URL）由实现方负责，引擎只关心语义；
// 注入不同实现即可在测试中替换整个网络层。
type ChatAPI interface {
	// CreateReply 创建一条顶级评论或回复，返回服务端确认后的评论。
	CreateReply(ctx context.Context, params *CreateReplyParams) (*model.Comment, error)

	// UpdateComment 对评论做部分更新，返回更新后的评论。
	UpdateComment(ctx context.Context, commentID string, params *UpdateCommentParams) (*model.Comment, error)

	// DeleteComment 删除一条评论。
	DeleteComment(ctx context.Context, commentID string) error

	// LikeChat / DislikeChat 切换点赞状态，服务端只关心动作本身。
	LikeChat(ctx context.Context, userID, chatID string) error
	DislikeChat(ctx context.Context, userID, chatID string) error

	// GetFormattedLink 获取一条评论的富文本分享链接 HTML。
	GetFormattedLink(ctx context.Context, commentID, baseURL string) (string, error)

	// TransformMessage 把内容中的任务深链接改写为规范形式。
	TransformMessage(ctx context.Context, message string) (string, error)
}
