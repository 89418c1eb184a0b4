/*
 * @Description: ChatAPI 的 net/http 默认实现
 * @Author: 安知鱼
 * @Date: 2025-09-01 16:40:33
 * @LastEditTime: 2025-09-01 16:40:40
 * @LastEditors: 安知鱼
 */
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/anzhiyu-c/taskchat/pkg/constant"
	"github.com/anzhiyu-c/taskchat/pkg/domain/model"
	"github.com/anzhiyu-c/taskchat/pkg/domain/repository"
	"github.com/anzhiyu-c/taskchat/pkg/service/mention"
)

// TokenProvider 返回当前的访问令牌。会话状态由外部协作者维护，
// 这里只在每次请求时取用。
type TokenProvider func() string

// HTTPChatAPI 是 repository.ChatAPI 基于 net/http 的默认实现。
type HTTPChatAPI struct {
	baseURL string
	token   TokenProvider
	client  *http.Client
}

// NewHTTPChatAPI 创建默认实现。baseURL 不带末尾斜杠。
func NewHTTPChatAPI(baseURL string, token TokenProvider) *HTTPChatAPI {
	return &HTTPChatAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

var _ repository.ChatAPI = (*HTTPChatAPI)(nil)

// commentDTO 是评论的线格式。
type commentDTO struct {
	ID         string        `json:"id"`
	TaskID     string        `json:"taskId"`
	SenderID   string        `json:"sender"`
	SenderName string        `json:"sender_name,omitempty"`
	Message    string        `json:"message"`
	Timestamp  time.Time     `json:"timestamp"`
	IsEdited   bool          `json:"is_edited"`
	Likes      []string      `json:"likes"`
	ReplyToID  *string       `json:"reply_to"`
	Replies    []*commentDTO `json:"replies"`
	Pinned     bool          `json:"pinned"`
}

func (d *commentDTO) toModel() *model.Comment {
	if d == nil {
		return nil
	}
	c := &model.Comment{
		ID:         d.ID,
		TaskID:     d.TaskID,
		SenderID:   d.SenderID,
		SenderName: d.SenderName,
		Message:    d.Message,
		Timestamp:  d.Timestamp,
		IsEdited:   d.IsEdited,
		Likes:      d.Likes,
		ReplyToID:  d.ReplyToID,
		Pinned:     d.Pinned,
	}
	for _, r := range d.Replies {
		c.Replies = append(c.Replies, r.toModel())
	}
	return c
}

// CreateReply 创建评论/回复。mentionedEmails 为空时整体省略该字段。
func (h *HTTPChatAPI) CreateReply(ctx context.Context, params *repository.CreateReplyParams) (*model.Comment, error) {
	body := map[string]any{
		"taskId":  params.TaskID,
		"sender":  params.SenderID,
		"message": params.Message,
	}
	if params.ReplyToID != nil {
		body["reply_to"] = *params.ReplyToID
	}
	if encoded, ok := mention.EmailsJSON(params.MentionedEmails); ok {
		body["mentionedEmails"] = encoded
	}

	var dto commentDTO
	if err := h.do(ctx, http.MethodPost, constant.EndpointCreateReply, body, &dto); err != nil {
		return nil, fmt.Errorf("创建评论请求失败: %w", err)
	}
	return dto.toModel(), nil
}

// UpdateComment 对评论做部分更新。
func (h *HTTPChatAPI) UpdateComment(ctx context.Context, commentID string, params *repository.UpdateCommentParams) (*model.Comment, error) {
	body := map[string]any{
		"message": params.Message,
	}
	if len(params.Images) > 0 {
		body["images"] = params.Images
	}
	if encoded, ok := mention.EmailsJSON(params.MentionedEmails); ok {
		body["mentionedEmails"] = encoded
	}

	var dto commentDTO
	path := fmt.Sprintf(constant.EndpointComment, commentID)
	if err := h.do(ctx, http.MethodPatch, path, body, &dto); err != nil {
		return nil, fmt.Errorf("更新评论请求失败: %w", err)
	}
	return dto.toModel(), nil
}

// DeleteComment 删除评论。
func (h *HTTPChatAPI) DeleteComment(ctx context.Context, commentID string) error {
	path := fmt.Sprintf(constant.EndpointComment, commentID)
	if err := h.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("删除评论请求失败: %w", err)
	}
	return nil
}

// LikeChat 点赞。
func (h *HTTPChatAPI) LikeChat(ctx context.Context, userID, chatID string) error {
	path := fmt.Sprintf(constant.EndpointLikeChat, userID, chatID)
	if err := h.do(ctx, http.MethodPost, path, true, nil); err != nil {
		return fmt.Errorf("点赞请求失败: %w", err)
	}
	return nil
}

// DislikeChat 取消点赞。
func (h *HTTPChatAPI) DislikeChat(ctx context.Context, userID, chatID string) error {
	path := fmt.Sprintf(constant.EndpointDislikeChat, userID, chatID)
	if err := h.do(ctx, http.MethodPost, path, true, nil); err != nil {
		return fmt.Errorf("取消点赞请求失败: %w", err)
	}
	return nil
}

// GetFormattedLink 获取富文本分享链接。
func (h *HTTPChatAPI) GetFormattedLink(ctx context.Context, commentID, baseURL string) (string, error) {
	path := fmt.Sprintf(constant.EndpointFormattedLink, commentID)
	var resp struct {
		Status      string `json:"status"`
		HTMLContent string `json:"html_content"`
	}
	if err := h.do(ctx, http.MethodPost, path, map[string]any{"base_url": baseURL}, &resp); err != nil {
		return "", fmt.Errorf("获取分享链接请求失败: %w", err)
	}
	return resp.HTMLContent, nil
}

// TransformMessage 改写内容中的任务深链接。
func (h *HTTPChatAPI) TransformMessage(ctx context.Context, message string) (string, error) {
	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := h.do(ctx, http.MethodPost, constant.EndpointChangeMessage, map[string]any{"message": message}, &resp); err != nil {
		return "", fmt.Errorf("链接改写请求失败: %w", err)
	}
	return resp.Message, nil
}

// do 发送一次请求并在 out 非空时解码响应体。
func (h *HTTPChatAPI) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("编码请求体失败: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != nil {
		if tok := h.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("状态码异常: %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应体失败: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("解码响应体失败: %w", err)
	}
	return nil
}
