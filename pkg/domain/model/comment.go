/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2025-09-01 10:12:18
 * @LastEditTime: 2025-09-01 10:12:24
 * @LastEditors: 安知鱼
 */
// pkg/domain/model/comment.go
package model

import "time"

// Comment 是任务评论的核心领域模型。
// 回复直接挂在父节点的 Replies 上（反范式的树结构，不是带父指针的扁平列表），
// 渲染层递归遍历的就是这棵树。
type Comment struct {
	ID string // 评论在所属任务内唯一的不透明标识

	// --- 关联 ---
	TaskID    string
	ReplyToID *string // 顶级评论为 nil，否则指向父评论ID

	// --- 发送者 ---
	SenderID   string // 可能指向一个已被移除的用户，展示时需要做注销判定
	SenderName string // 创建时冗余存储的昵称，发送者被删除后仍可用于展示

	// --- 内容 ---
	Message   string // 经过净化的富文本 HTML 片段，可内嵌图片/视频和提及标记
	Timestamp time.Time
	IsEdited  bool

	// --- 互动 ---
	Likes []string // 点赞用户ID集合；成员唯一是唯一不变量，顺序无关

	// --- 树结构 ---
	Replies []*Comment // 服务端插入顺序，客户端渲染时不重排

	Pinned  bool // 仅对深度为 0 的评论有意义
	Deleted bool // 墓碑标记：带回复的评论被删除后保留占位，子回复不随之消失
}

// IsTopLevel 判断是否为顶级评论。
func (c *Comment) IsTopLevel() bool {
	return c.ReplyToID == nil
}

// HasLiked 判断指定用户是否已点赞。
func (c *Comment) HasLiked(userID string) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// AddLike 将用户加入点赞集合。重复调用是幂等的，不会出现重复成员。
func (c *Comment) AddLike(userID string) {
	if c.HasLiked(userID) {
		return
	}
	c.Likes = append(c.Likes, userID)
}

// RemoveLike 将用户移出点赞集合。用户不在集合中时不产生任何变化。
func (c *Comment) RemoveLike(userID string) {
	for i, id := range c.Likes {
		if id == userID {
			c.Likes = append(c.Likes[:i], c.Likes[i+1:]...)
			return
		}
	}
}

// Clone 深拷贝整棵子树，用于乐观更新前的快照。
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	dup := *c
	if c.ReplyToID != nil {
		rid := *c.ReplyToID
		dup.ReplyToID = &rid
	}
	dup.Likes = append([]string(nil), c.Likes...)
	dup.Replies = make([]*Comment, len(c.Replies))
	for i, child := range c.Replies {
		dup.Replies[i] = child.Clone()
	}
	return &dup
}
