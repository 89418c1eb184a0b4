/*
 * @Description: 乐观变更引擎
 * @Author: 安知鱼
 * @Date: 2025-09-01 16:05:12
 * @LastEditTime: 2025-09-01 16:05:20
 * @LastEditors: 安知鱼
 */
package mutation

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/anzhiyu-c/taskchat/internal/pkg/parser"
	"github.com/anzhiyu-c/taskchat/pkg/constant"
	"github.com/anzhiyu-c/taskchat/pkg/domain/model"
	"github.com/anzhiyu-c/taskchat/pkg/domain/repository"
	"github.com/anzhiyu-c/taskchat/pkg/service/mention"
	"github.com/anzhiyu-c/taskchat/pkg/service/pipeline"
	"github.com/anzhiyu-c/taskchat/pkg/service/thread"
)

// Engine 把每个变更动作（回复、编辑、删除、点赞）包进统一的三阶段协议：
// 先改本地状态，再发出请求，失败时恢复到变更前的快照并给出用户可见的错误。
// 每次变更恰好等待一次出站请求；引擎不在同一节点上串行化不同种类的变更。
type Engine struct {
	api     repository.ChatAPI
	thread  *thread.Thread
	dir     *thread.Directory
	policy  *pipeline.SanitizationPolicy
	notify  Notifier
	limiter *rate.Limiter

	taskID        string
	currentUserID string
	baseURL       string

	phases map[phaseKey]Phase

	// 调用方提供的回调，都是可选的
	OnRefresh func()                   // 回复成功后触发一次外部刷新
	OnEdited  func(c *model.Comment)   // 编辑成功后
	OnRemoved func(commentID string)   // 删除成功后的UI侧列表更新，不触发独立重取
}

// Config 是引擎的装配参数。
type Config struct {
	API           repository.ChatAPI
	Thread        *thread.Thread
	Directory     *thread.Directory
	Policy        *pipeline.SanitizationPolicy
	Notifier      Notifier
	TaskID        string
	CurrentUserID string
	BaseURL       string

	// MutationsPerMinute 是本地限流：防住连点点赞这类突发，0 表示不限
	MutationsPerMinute int
}

// NewEngine 创建一个变更引擎。一个引擎实例独占一个任务的评论树。
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		api:           cfg.API,
		thread:        cfg.Thread,
		dir:           cfg.Directory,
		policy:        cfg.Policy,
		notify:        cfg.Notifier,
		taskID:        cfg.TaskID,
		currentUserID: cfg.CurrentUserID,
		baseURL:       cfg.BaseURL,
		phases:        make(map[phaseKey]Phase),
	}
	if e.policy == nil {
		e.policy = pipeline.DefaultPolicy()
	}
	if e.notify == nil {
		e.notify = NopNotifier{}
	}
	if cfg.MutationsPerMinute > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(float64(cfg.MutationsPerMinute)/60), cfg.MutationsPerMinute)
	}
	return e
}

// Phase 返回某个节点上某类变更当前所处的阶段。
func (e *Engine) Phase(commentID string, kind Kind) Phase {
	return e.phases[phaseKey{commentID, kind}]
}

func (e *Engine) setPhase(commentID string, kind Kind, p Phase) {
	e.phases[phaseKey{commentID, kind}] = p
}

// allow 在变更入口做本地限流，被拒绝时不触碰任何状态。
func (e *Engine) allow() error {
	if e.limiter != nil && !e.limiter.Allow() {
		return constant.ErrRateLimited
	}
	return nil
}

// ToggleLike 切换当前用户对评论的点赞状态。
// 先按当前成员资格翻转本地集合（成员资格驱动，不依赖独立计数器），
// 再发出对应请求；失败时把集合恢复为触发前的快照并提示错误。
func (e *Engine) ToggleLike(ctx context.Context, commentID string) error {
	if err := e.allow(); err != nil {
		return err
	}
	node, _ := e.thread.Find(commentID)
	if node == nil {
		return constant.ErrCommentNotFound
	}

	snapshot := node.Clone()
	liked := node.HasLiked(e.currentUserID)

	e.setPhase(commentID, KindLike, PhasePending)
	if liked {
		node.RemoveLike(e.currentUserID)
	} else {
		node.AddLike(e.currentUserID)
	}

	var err error
	if liked {
		err = e.api.DislikeChat(ctx, e.currentUserID, commentID)
	} else {
		err = e.api.LikeChat(ctx, e.currentUserID, commentID)
	}
	if err != nil {
		// 节点可能在等待期间离开了树，迟到的结果静默丢弃
		if current, _ := e.thread.Find(commentID); current != nil {
			current.Likes = snapshot.Likes
		}
		e.setPhase(commentID, KindLike, PhaseRolledBack)
		e.notify.Error("点赞操作失败，请稍后再试")
		return fmt.Errorf("切换点赞状态失败: %w", err)
	}
	e.setPhase(commentID, KindLike, PhaseCommitted)
	return nil
}

// BeginReply 打开节点的回复表单。到达最大层级的节点没有回复入口。
func (e *Engine) BeginReply(commentID string) error {
	_, depth := e.thread.Find(commentID)
	if depth < 0 {
		return constant.ErrCommentNotFound
	}
	if !e.thread.CanReply(depth) {
		return constant.ErrMaxDepthReached
	}
	e.thread.State(commentID).IsReplying = true
	return nil
}

// SubmitReply 提交一条回复（replyToID 为 nil 时是顶级评论）。
// 草稿去标签、去实体后没有残留文本的视为为空，本地拦截，不发请求。
// 成功后触发外部刷新回调、清空草稿并关闭回复表单；
// 失败时草稿原样保留、表单不关闭，只提示错误。
func (e *Engine) SubmitReply(ctx context.Context, replyToID *string, draft string) (*model.Comment, error) {
	if err := e.allow(); err != nil {
		return nil, err
	}
	if parser.IsEffectivelyEmpty(draft) {
		return nil, constant.ErrEmptyDraft
	}

	var parentID string
	if replyToID != nil {
		parentID = *replyToID
		_, depth := e.thread.Find(parentID)
		if depth < 0 {
			return nil, constant.ErrCommentNotFound
		}
		if !e.thread.CanReply(depth) {
			return nil, constant.ErrMaxDepthReached
		}
	}

	message := pipeline.Sanitize(pipeline.Linkify(draft), e.policy)
	emails := mention.ResolveEmails(mention.Extract(message), e.dirUsers())

	// 乐观占位节点，服务端确认后整体替换
	placeholder := &model.Comment{
		ID:        "pending-" + uuid.New().String(),
		TaskID:    e.taskID,
		SenderID:  e.currentUserID,
		Message:   message,
		Timestamp: time.Now().UTC(),
		ReplyToID: replyToID,
	}
	if replyToID == nil {
		e.thread.PrependTopLevel(placeholder)
	} else {
		if err := e.thread.AppendReply(parentID, placeholder); err != nil {
			return nil, err
		}
	}
	e.setPhase(placeholder.ID, KindReply, PhasePending)

	confirmed, err := e.api.CreateReply(ctx, &repository.CreateReplyParams{
		TaskID:          e.taskID,
		SenderID:        e.currentUserID,
		Message:         message,
		ReplyToID:       replyToID,
		MentionedEmails: emails,
	})
	if err != nil {
		e.thread.Remove(placeholder.ID)
		e.setPhase(placeholder.ID, KindReply, PhaseRolledBack)
		e.notify.Error("评论发送失败，请稍后再试")
		return nil, fmt.Errorf("发送评论失败: %w", err)
	}

	if !e.thread.Replace(placeholder.ID, confirmed) {
		// 等待期间占位节点已随树更新消失，结果静默丢弃
		log.Printf("警告：评论 %s 的占位节点已不存在，丢弃服务端结果", confirmed.ID)
		return confirmed, nil
	}
	e.setPhase(placeholder.ID, KindReply, PhaseCommitted)

	if e.OnRefresh != nil {
		e.OnRefresh()
	}
	if replyToID != nil {
		state := e.thread.State(parentID)
		state.ReplyDraft = ""
		state.IsReplying = false
	}
	return confirmed, nil
}

// BeginEdit 进入编辑态。原始消息在保存成功前保持不变，
// 草稿放在节点状态里单独维护。
func (e *Engine) BeginEdit(commentID string) error {
	node, _ := e.thread.Find(commentID)
	if node == nil {
		return constant.ErrCommentNotFound
	}
	state := e.thread.State(commentID)
	state.IsEditing = true
	state.EditedMessageDraft = node.Message
	return nil
}

// CancelEdit 退出编辑态并丢弃草稿。原始消息从未被改动，无需恢复。
func (e *Engine) CancelEdit(commentID string) {
	state := e.thread.State(commentID)
	state.IsEditing = false
	state.EditedMessageDraft = ""
}

// SubmitEdit 提交编辑。纯空白草稿和去标签后为空的草稿都会被本地拦截。
// 请求携带新消息，以及从编辑后内容里提取出的图片列表和提及邮箱
// （为空时整体省略）。成功后退出编辑态并触发编辑回调；
// 失败时保持编辑态，用户的草稿一字不动。
func (e *Engine) SubmitEdit(ctx context.Context, commentID string) error {
	if err := e.allow(); err != nil {
		return err
	}
	node, _ := e.thread.Find(commentID)
	if node == nil {
		return constant.ErrCommentNotFound
	}
	state := e.thread.State(commentID)
	draft := state.EditedMessageDraft
	if strings.TrimSpace(draft) == "" || parser.IsEffectivelyEmpty(draft) {
		return constant.ErrEmptyDraft
	}

	message := pipeline.Sanitize(pipeline.Linkify(draft), e.policy)
	images := pipeline.ExtractImageURLs(message)
	emails := mention.ResolveEmails(mention.Extract(message), e.dirUsers())

	e.setPhase(commentID, KindEdit, PhasePending)
	state.IsSaving = true

	updated, err := e.api.UpdateComment(ctx, commentID, &repository.UpdateCommentParams{
		Message:         message,
		Images:          images,
		MentionedEmails: emails,
	})
	state.IsSaving = false
	if err != nil {
		// 原始消息从未被改动，保持编辑态和草稿即是回滚
		e.setPhase(commentID, KindEdit, PhaseRolledBack)
		e.notify.Error("评论保存失败，请稍后再试")
		return fmt.Errorf("保存评论失败: %w", err)
	}

	if current, _ := e.thread.Find(commentID); current != nil {
		current.Message = updated.Message
		current.IsEdited = true
		state.IsEditing = false
		state.EditedMessageDraft = ""
	}
	e.setPhase(commentID, KindEdit, PhaseCommitted)
	if e.OnEdited != nil {
		e.OnEdited(updated)
	}
	return nil
}

// RequestDelete 展开删除确认面（两阶段删除的第一阶段）。
func (e *Engine) RequestDelete(commentID string) error {
	if node, _ := e.thread.Find(commentID); node == nil {
		return constant.ErrCommentNotFound
	}
	e.thread.State(commentID).IsDeleting = true
	return nil
}

// CancelDelete 收起删除确认面。
func (e *Engine) CancelDelete(commentID string) {
	e.thread.State(commentID).IsDeleting = false
}

// ConfirmDelete 执行删除（第二阶段），必须先经过 RequestDelete。
// 成功后做UI侧的列表更新（带回复的节点保留墓碑）并触发删除回调；
// 失败时提示错误后同样收起确认面，删除失败不阻止用户重新发起。
func (e *Engine) ConfirmDelete(ctx context.Context, commentID string) error {
	if err := e.allow(); err != nil {
		return err
	}
	node, _ := e.thread.Find(commentID)
	if node == nil {
		return constant.ErrCommentNotFound
	}
	state := e.thread.State(commentID)
	if !state.IsDeleting {
		return constant.ErrNotConfirmed
	}

	e.setPhase(commentID, KindDelete, PhasePending)
	if err := e.api.DeleteComment(ctx, commentID); err != nil {
		e.setPhase(commentID, KindDelete, PhaseRolledBack)
		e.notify.Error("评论删除失败，请稍后再试")
		state.IsDeleting = false
		return fmt.Errorf("删除评论失败: %w", err)
	}

	e.thread.Remove(commentID)
	e.setPhase(commentID, KindDelete, PhaseCommitted)
	if e.OnRemoved != nil {
		e.OnRemoved(commentID)
	}
	return nil
}

// RenderMessage 返回节点消息在渲染前的最终形态：对已净化的内容做二次规整，
// 相对图片路径基于引擎配置的 baseURL 解析为绝对地址。
func (e *Engine) RenderMessage(commentID string) (string, error) {
	node, _ := e.thread.Find(commentID)
	if node == nil {
		return "", constant.ErrCommentNotFound
	}
	return pipeline.NormalizeRich(node.Message, e.policy, e.baseURL), nil
}

func (e *Engine) dirUsers() []*model.User {
	if e.dir == nil {
		return nil
	}
	return e.dir.Users
}
