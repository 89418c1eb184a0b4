/*
 * @Description: 评论树模型与逐节点UI状态
 * @Author: 安知鱼
 * @Date: 2025-09-01 14:10:28
 * @LastEditTime: 2025-09-01 14:10:35
 * @LastEditors: 安知鱼
 */
package thread

import (
	"github.com/anzhiyu-c/taskchat/pkg/constant"
	"github.com/anzhiyu-c/taskchat/pkg/domain/model"
)

// DefaultMaxDepth 是任务根之下允许的最大嵌套层级。
// 到达边界后回复入口被撤除，而不是悄悄截断。
const DefaultMaxDepth = 3

// NodeState 是单个评论节点的UI状态，不持久化。
// 状态按节点ID存放在 Thread 的映射里，而不是依赖渲染实例的局部性，
// 节点重排时不会发生状态串位。
type NodeState struct {
	IsEditing   bool
	IsReplying  bool
	ShowReplies bool // 默认折叠；展开不触发任何网络请求，回复已在 Replies 里
	IsDeleting  bool // 删除确认面是否展开（两阶段删除的第一阶段）
	IsSaving    bool

	EditedMessageDraft string
	ReplyDraft         string
}

// Thread 持有单个任务评论线程的全部客户端状态。
// 一个 Thread 实例只被渲染该任务线程的组件独占，不做并发保护。
type Thread struct {
	MaxDepth int
	Comments []*model.Comment // 顶级评论，服务端插入顺序

	states map[string]*NodeState
}

// New 创建一个空的评论线程。maxDepth <= 0 时使用默认层级。
func New(maxDepth int) *Thread {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Thread{
		MaxDepth: maxDepth,
		states:   make(map[string]*NodeState),
	}
}

// Load 用服务端返回的评论列表替换整棵树。已有的UI状态按节点ID保留，
// 消失的节点其状态被丢弃（迟到的网络结果找不到节点时会被静默丢掉）。
func (t *Thread) Load(comments []*model.Comment) {
	t.Comments = comments
	alive := make(map[string]struct{})
	t.Walk(func(c *model.Comment, depth int) bool {
		alive[c.ID] = struct{}{}
		return true
	})
	for id := range t.states {
		if _, ok := alive[id]; !ok {
			delete(t.states, id)
		}
	}
}

// State 返回节点的UI状态，首次访问时惰性创建（默认折叠、无草稿）。
func (t *Thread) State(id string) *NodeState {
	s, ok := t.states[id]
	if !ok {
		s = &NodeState{}
		t.states[id] = s
	}
	return s
}

// Walk 以先序遍历整棵树，depth 从 0 起。fn 返回 false 时停止遍历。
func (t *Thread) Walk(fn func(c *model.Comment, depth int) bool) {
	var visit func(nodes []*model.Comment, depth int) bool
	visit = func(nodes []*model.Comment, depth int) bool {
		for _, c := range nodes {
			if !fn(c, depth) {
				return false
			}
			if !visit(c.Replies, depth+1) {
				return false
			}
		}
		return true
	}
	visit(t.Comments, 0)
}

// Find 按ID查找节点，同时返回其深度。未找到时返回 (nil, -1)。
func (t *Thread) Find(id string) (*model.Comment, int) {
	var found *model.Comment
	foundDepth := -1
	t.Walk(func(c *model.Comment, depth int) bool {
		if c.ID == id {
			found, foundDepth = c, depth
			return false
		}
		return true
	})
	return found, foundDepth
}

// CanReply 判断位于 depth 的节点是否还允许继续回复。
// depth 是节点自身的深度，其回复会落在 depth+1；
// 处在边界层级（MaxDepth）的节点不再提供回复入口。
func (t *Thread) CanReply(depth int) bool {
	return depth >= 0 && depth < t.MaxDepth
}

// PrependTopLevel 乐观地把新评论插到顶级列表最前面。
// 这是客户端唯一的主动排序动作，渲染时从不重排服务端顺序。
func (t *Thread) PrependTopLevel(c *model.Comment) {
	t.Comments = append([]*model.Comment{c}, t.Comments...)
}

// AppendReply 把回复追加到父节点的 Replies 末尾（服务端插入顺序）。
// 超出最大层级时返回 ErrMaxDepthReached。
func (t *Thread) AppendReply(parentID string, c *model.Comment) error {
	parent, depth := t.Find(parentID)
	if parent == nil {
		return constant.ErrCommentNotFound
	}
	if !t.CanReply(depth) {
		return constant.ErrMaxDepthReached
	}
	parent.Replies = append(parent.Replies, c)
	return nil
}

// Remove 按ID删除节点。带回复的节点不整棵摘除，而是替换为墓碑
// （内容清空、标记 Deleted），子回复全部保留；叶子节点直接从父序列移除。
func (t *Thread) Remove(id string) bool {
	node, _ := t.Find(id)
	if node == nil {
		return false
	}
	if len(node.Replies) > 0 {
		node.Message = ""
		node.Deleted = true
		node.Pinned = false
		delete(t.states, id)
		return true
	}
	removed := t.removeLeaf(id)
	if removed {
		delete(t.states, id)
	}
	return removed
}

func (t *Thread) removeLeaf(id string) bool {
	for i, c := range t.Comments {
		if c.ID == id {
			t.Comments = append(t.Comments[:i], t.Comments[i+1:]...)
			return true
		}
	}
	var done bool
	t.Walk(func(c *model.Comment, depth int) bool {
		for i, child := range c.Replies {
			if child.ID == id {
				c.Replies = append(c.Replies[:i], c.Replies[i+1:]...)
				done = true
				return false
			}
		}
		return true
	})
	return done
}

// Replace 用服务端确认后的评论替换乐观占位节点，UI状态随ID迁移。
func (t *Thread) Replace(placeholderID string, confirmed *model.Comment) bool {
	var done bool
	replaceIn := func(nodes []*model.Comment) bool {
		for i, c := range nodes {
			if c.ID == placeholderID {
				confirmed.Replies = c.Replies
				nodes[i] = confirmed
				return true
			}
		}
		return false
	}
	if replaceIn(t.Comments) {
		done = true
	} else {
		t.Walk(func(c *model.Comment, depth int) bool {
			if replaceIn(c.Replies) {
				done = true
				return false
			}
			return true
		})
	}
	if done {
		if s, ok := t.states[placeholderID]; ok {
			delete(t.states, placeholderID)
			t.states[confirmed.ID] = s
		}
	}
	return done
}

// Pin 切换顶级评论的置顶标记。非顶级节点返回 ErrPinDepth。
// 置顶只影响渲染标记，客户端不重排列表。
func (t *Thread) Pin(id string, pinned bool) error {
	node, depth := t.Find(id)
	if node == nil {
		return constant.ErrCommentNotFound
	}
	if depth != 0 {
		return constant.ErrPinDepth
	}
	node.Pinned = pinned
	return nil
}
