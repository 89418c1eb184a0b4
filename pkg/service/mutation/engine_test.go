package mutation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/anzhiyu-c/taskchat/pkg/constant"
	"github.com/anzhiyu-c/taskchat/pkg/domain/model"
	"github.com/anzhiyu-c/taskchat/pkg/domain/repository"
	"github.com/anzhiyu-c/taskchat/pkg/service/thread"
)

var errBoom = errors.New("网络故障")

// fakeChatAPI 是 repository.ChatAPI 的内存假实现。
type fakeChatAPI struct {
	failLike   bool
	failCreate bool
	failUpdate bool
	failDelete bool

	likeCalls    int
	dislikeCalls int
	createCalls  int

	lastCreate *repository.CreateReplyParams
	lastUpdate *repository.UpdateCommentParams

	nextID string
}

func (f *fakeChatAPI) CreateReply(ctx context.Context, params *repository.CreateReplyParams) (*model.Comment, error) {
	f.createCalls++
	f.lastCreate = params
	if f.failCreate {
		return nil, errBoom
	}
	id := f.nextID
	if id == "" {
		id = "srv-1"
	}
	return &model.Comment{
		ID:        id,
		TaskID:    params.TaskID,
		SenderID:  params.SenderID,
		Message:   params.Message,
		ReplyToID: params.ReplyToID,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (f *fakeChatAPI) UpdateComment(ctx context.Context, commentID string, params *repository.UpdateCommentParams) (*model.Comment, error) {
	f.lastUpdate = params
	if f.failUpdate {
		return nil, errBoom
	}
	return &model.Comment{ID: commentID, Message: params.Message, IsEdited: true}, nil
}

func (f *fakeChatAPI) DeleteComment(ctx context.Context, commentID string) error {
	if f.failDelete {
		return errBoom
	}
	return nil
}

func (f *fakeChatAPI) LikeChat(ctx context.Context, userID, chatID string) error {
	f.likeCalls++
	if f.failLike {
		return errBoom
	}
	return nil
}

func (f *fakeChatAPI) DislikeChat(ctx context.Context, userID, chatID string) error {
	f.dislikeCalls++
	if f.failLike {
		return errBoom
	}
	return nil
}

func (f *fakeChatAPI) GetFormattedLink(ctx context.Context, commentID, baseURL string) (string, error) {
	return "<p>link</p>", nil
}

func (f *fakeChatAPI) TransformMessage(ctx context.Context, message string) (string, error) {
	return message, nil
}

// recordingNotifier 记录所有通知，断言失败路径一定有用户可见的提示。
type recordingNotifier struct {
	errorCount int
}

func (r *recordingNotifier) Error(string)   { r.errorCount++ }
func (r *recordingNotifier) Success(string) {}

func newTestEngine(api *fakeChatAPI, comments []*model.Comment) (*Engine, *thread.Thread, *recordingNotifier) {
	tr := thread.New(3)
	tr.Load(comments)
	notifier := &recordingNotifier{}
	engine := NewEngine(Config{
		API:           api,
		Thread:        tr,
		Notifier:      notifier,
		TaskID:        "task-1",
		CurrentUserID: "me",
	})
	return engine, tr, notifier
}

func TestToggleLike_点赞与取消恢复原集合(t *testing.T) {
	api := &fakeChatAPI{}
	engine, tr, _ := newTestEngine(api, []*model.Comment{
		{ID: "c1", Likes: []string{"other"}},
	})
	ctx := context.Background()

	if err := engine.ToggleLike(ctx, "c1"); err != nil {
		t.Fatalf("点赞不应失败: %v", err)
	}
	node, _ := tr.Find("c1")
	if !node.HasLiked("me") || len(node.Likes) != 2 {
		t.Fatalf("点赞后集合不符: %v", node.Likes)
	}
	if api.likeCalls != 1 {
		t.Errorf("应发出一次点赞请求，实际 %d", api.likeCalls)
	}

	if err := engine.ToggleLike(ctx, "c1"); err != nil {
		t.Fatalf("取消点赞不应失败: %v", err)
	}
	if node.HasLiked("me") || len(node.Likes) != 1 || node.Likes[0] != "other" {
		t.Errorf("取消点赞后应恢复原成员资格: %v", node.Likes)
	}
	if api.dislikeCalls != 1 {
		t.Errorf("应发出一次取消点赞请求，实际 %d", api.dislikeCalls)
	}
}

func TestToggleLike_失败回滚并提示(t *testing.T) {
	api := &fakeChatAPI{failLike: true}
	engine, tr, notifier := newTestEngine(api, []*model.Comment{
		{ID: "c1", Likes: []string{"other"}},
	})

	err := engine.ToggleLike(context.Background(), "c1")
	if err == nil {
		t.Fatal("失败应返回错误")
	}
	node, _ := tr.Find("c1")
	if node.HasLiked("me") || len(node.Likes) != 1 {
		t.Errorf("失败后应恢复触发前的集合: %v", node.Likes)
	}
	if engine.Phase("c1", KindLike) != PhaseRolledBack {
		t.Errorf("阶段应为 RolledBack，实际 %v", engine.Phase("c1", KindLike))
	}
	if notifier.errorCount != 1 {
		t.Errorf("应有一条错误通知，实际 %d", notifier.errorCount)
	}
}

func TestSubmitReply_空草稿本地拦截(t *testing.T) {
	api := &fakeChatAPI{}
	engine, _, _ := newTestEngine(api, nil)

	for _, draft := range []string{"   ", "<p></p>", "<p>&nbsp;</p>", "<b><i></i></b>"} {
		_, err := engine.SubmitReply(context.Background(), nil, draft)
		if !errors.Is(err, constant.ErrEmptyDraft) {
			t.Errorf("草稿 %q 应被拦截，实际 %v", draft, err)
		}
	}
	if api.createCalls != 0 {
		t.Errorf("空草稿不应发出请求，实际 %d 次", api.createCalls)
	}
}

func TestSubmitReply_顶级评论乐观前插并替换(t *testing.T) {
	api := &fakeChatAPI{nextID: "srv-9"}
	engine, tr, _ := newTestEngine(api, []*model.Comment{{ID: "old"}})

	created, err := engine.SubmitReply(context.Background(), nil, "<p>大家好</p>")
	if err != nil {
		t.Fatalf("提交不应失败: %v", err)
	}
	if created.ID != "srv-9" {
		t.Errorf("应返回服务端确认的评论，实际 %q", created.ID)
	}
	if tr.Comments[0].ID != "srv-9" || tr.Comments[1].ID != "old" {
		t.Errorf("确认节点应占据乐观前插的位置: %v, %v", tr.Comments[0].ID, tr.Comments[1].ID)
	}
}

func TestSubmitReply_嵌套回复成功后清空草稿关闭表单(t *testing.T) {
	api := &fakeChatAPI{nextID: "srv-2"}
	engine, tr, _ := newTestEngine(api, []*model.Comment{{ID: "p"}})

	state := tr.State("p")
	state.IsReplying = true
	state.ReplyDraft = "<p>收到</p>"

	parentID := "p"
	if _, err := engine.SubmitReply(context.Background(), &parentID, state.ReplyDraft); err != nil {
		t.Fatalf("提交不应失败: %v", err)
	}
	parent, _ := tr.Find("p")
	if len(parent.Replies) != 1 || parent.Replies[0].ID != "srv-2" {
		t.Fatalf("回复应追加到父节点: %+v", parent.Replies)
	}
	if state.ReplyDraft != "" || state.IsReplying {
		t.Errorf("成功后应清空草稿并关闭表单: %+v", state)
	}
}

func TestSubmitReply_失败保留草稿不关表单(t *testing.T) {
	api := &fakeChatAPI{failCreate: true}
	engine, tr, notifier := newTestEngine(api, []*model.Comment{{ID: "p"}})

	state := tr.State("p")
	state.IsReplying = true
	state.ReplyDraft = "<p>没发出去</p>"

	parentID := "p"
	_, err := engine.SubmitReply(context.Background(), &parentID, state.ReplyDraft)
	if err == nil {
		t.Fatal("失败应返回错误")
	}
	parent, _ := tr.Find("p")
	if len(parent.Replies) != 0 {
		t.Errorf("失败后乐观占位节点应被移除: %+v", parent.Replies)
	}
	if state.ReplyDraft != "<p>没发出去</p>" || !state.IsReplying {
		t.Errorf("失败后草稿应原样保留且表单不关闭: %+v", state)
	}
	if notifier.errorCount != 1 {
		t.Errorf("应有一条错误通知，实际 %d", notifier.errorCount)
	}
}

func TestSubmitReply_层级边界拒绝(t *testing.T) {
	api := &fakeChatAPI{}
	boundary := "c3"
	tree := []*model.Comment{{ID: "c0", Replies: []*model.Comment{
		{ID: "c1", Replies: []*model.Comment{
			{ID: "c2", Replies: []*model.Comment{{ID: boundary}}},
		}},
	}}}
	engine, _, _ := newTestEngine(api, tree)

	if err := engine.BeginReply(boundary); !errors.Is(err, constant.ErrMaxDepthReached) {
		t.Errorf("边界节点不应提供回复入口，实际 %v", err)
	}
	_, err := engine.SubmitReply(context.Background(), &boundary, "<p>太深了</p>")
	if !errors.Is(err, constant.ErrMaxDepthReached) {
		t.Errorf("边界之外的回复应被拒绝，实际 %v", err)
	}
	if api.createCalls != 0 {
		t.Error("被拒绝的回复不应发出请求")
	}

	maxMinusOne := "c2"
	if _, err := engine.SubmitReply(context.Background(), &maxMinusOne, "<p>可以</p>"); err != nil {
		t.Errorf("边界之内的回复应成功: %v", err)
	}
}

func TestSubmitReply_提及邮箱为空时整体省略(t *testing.T) {
	api := &fakeChatAPI{}
	engine, _, _ := newTestEngine(api, nil)

	if _, err := engine.SubmitReply(context.Background(), nil, "<p>无提及</p>"); err != nil {
		t.Fatalf("提交不应失败: %v", err)
	}
	if len(api.lastCreate.MentionedEmails) != 0 {
		t.Errorf("无提及时邮箱列表应为空: %v", api.lastCreate.MentionedEmails)
	}
}

func TestSubmitEdit_成功退出编辑态(t *testing.T) {
	api := &fakeChatAPI{}
	engine, tr, _ := newTestEngine(api, []*model.Comment{{ID: "c1", Message: "<p>旧内容</p>"}})

	if err := engine.BeginEdit("c1"); err != nil {
		t.Fatalf("进入编辑态失败: %v", err)
	}
	state := tr.State("c1")
	if state.EditedMessageDraft != "<p>旧内容</p>" {
		t.Fatalf("草稿应初始化为原始消息: %q", state.EditedMessageDraft)
	}
	state.EditedMessageDraft = "<p>新内容</p>"

	if err := engine.SubmitEdit(context.Background(), "c1"); err != nil {
		t.Fatalf("编辑不应失败: %v", err)
	}
	node, _ := tr.Find("c1")
	if node.Message == "<p>旧内容</p>" || !node.IsEdited {
		t.Errorf("保存成功后消息应更新并带编辑标记: %+v", node)
	}
	if state.IsEditing || state.IsSaving {
		t.Errorf("保存成功后应退出编辑态: %+v", state)
	}
}

func TestSubmitEdit_失败保持编辑态草稿不动(t *testing.T) {
	api := &fakeChatAPI{failUpdate: true}
	engine, tr, notifier := newTestEngine(api, []*model.Comment{{ID: "c1", Message: "<p>旧内容</p>"}})

	_ = engine.BeginEdit("c1")
	state := tr.State("c1")
	state.EditedMessageDraft = "<p>没保存上</p>"

	err := engine.SubmitEdit(context.Background(), "c1")
	if err == nil {
		t.Fatal("失败应返回错误")
	}
	node, _ := tr.Find("c1")
	if node.Message != "<p>旧内容</p>" || node.IsEdited {
		t.Errorf("失败后原始消息应保持不变: %+v", node)
	}
	if !state.IsEditing || state.EditedMessageDraft != "<p>没保存上</p>" {
		t.Errorf("失败后应保持编辑态且草稿一字不动: %+v", state)
	}
	if notifier.errorCount != 1 {
		t.Errorf("应有一条错误通知，实际 %d", notifier.errorCount)
	}
}

func TestSubmitEdit_空白草稿拦截(t *testing.T) {
	api := &fakeChatAPI{}
	engine, tr, _ := newTestEngine(api, []*model.Comment{{ID: "c1", Message: "<p>旧</p>"}})

	_ = engine.BeginEdit("c1")
	for _, draft := range []string{"   ", "<p></p>"} {
		tr.State("c1").EditedMessageDraft = draft
		if err := engine.SubmitEdit(context.Background(), "c1"); !errors.Is(err, constant.ErrEmptyDraft) {
			t.Errorf("草稿 %q 应被拦截，实际 %v", draft, err)
		}
	}
	if api.lastUpdate != nil {
		t.Error("被拦截的编辑不应发出请求")
	}
}

func TestCancelEdit_原值完整保留(t *testing.T) {
	api := &fakeChatAPI{}
	engine, tr, _ := newTestEngine(api, []*model.Comment{{ID: "c1", Message: "<p>原值</p>"}})

	_ = engine.BeginEdit("c1")
	tr.State("c1").EditedMessageDraft = "<p>改了一半</p>"
	engine.CancelEdit("c1")

	node, _ := tr.Find("c1")
	if node.Message != "<p>原值</p>" {
		t.Errorf("取消后消息应与编辑前完全一致: %q", node.Message)
	}
	state := tr.State("c1")
	if state.IsEditing || state.EditedMessageDraft != "" {
		t.Errorf("取消后应退出编辑态: %+v", state)
	}
}

func TestConfirmDelete_两阶段(t *testing.T) {
	t.Run("未经确认直接删除被拒绝", func(t *testing.T) {
		api := &fakeChatAPI{}
		engine, _, _ := newTestEngine(api, []*model.Comment{{ID: "c1"}})
		if err := engine.ConfirmDelete(context.Background(), "c1"); !errors.Is(err, constant.ErrNotConfirmed) {
			t.Errorf("期望 ErrNotConfirmed，实际 %v", err)
		}
	})

	t.Run("确认后删除并触发回调", func(t *testing.T) {
		api := &fakeChatAPI{}
		engine, tr, _ := newTestEngine(api, []*model.Comment{{ID: "c1"}})
		var removed string
		engine.OnRemoved = func(id string) { removed = id }

		_ = engine.RequestDelete("c1")
		if err := engine.ConfirmDelete(context.Background(), "c1"); err != nil {
			t.Fatalf("删除不应失败: %v", err)
		}
		if node, _ := tr.Find("c1"); node != nil {
			t.Error("叶子节点删除后不应留在树中")
		}
		if removed != "c1" {
			t.Errorf("删除回调应携带节点ID，实际 %q", removed)
		}
	})

	t.Run("删除失败提示后收起确认面", func(t *testing.T) {
		api := &fakeChatAPI{failDelete: true}
		engine, tr, notifier := newTestEngine(api, []*model.Comment{{ID: "c1"}})

		_ = engine.RequestDelete("c1")
		err := engine.ConfirmDelete(context.Background(), "c1")
		if err == nil {
			t.Fatal("失败应返回错误")
		}
		if node, _ := tr.Find("c1"); node == nil {
			t.Error("失败后节点不应被移除")
		}
		if tr.State("c1").IsDeleting {
			t.Error("失败后确认面同样应收起，不阻止重新发起")
		}
		if notifier.errorCount != 1 {
			t.Errorf("应有一条错误通知，实际 %d", notifier.errorCount)
		}
	})
}

func TestRenderMessage_相对图片路径按baseURL解析(t *testing.T) {
	api := &fakeChatAPI{}
	tr := thread.New(3)
	tr.Load([]*model.Comment{
		{ID: "c1", Message: `<p>看图 <img src="/media/p.png"/></p>`},
	})
	engine := NewEngine(Config{
		API:           api,
		Thread:        tr,
		TaskID:        "task-1",
		CurrentUserID: "me",
		BaseURL:       "https://cdn.example.com",
	})

	got, err := engine.RenderMessage("c1")
	if err != nil {
		t.Fatalf("渲染不应失败: %v", err)
	}
	if !strings.Contains(got, `src="https://cdn.example.com/media/p.png"`) {
		t.Errorf("相对路径应解析为绝对地址，实际: %q", got)
	}

	if _, err := engine.RenderMessage("ghost"); !errors.Is(err, constant.ErrCommentNotFound) {
		t.Errorf("不存在的节点应返回 ErrCommentNotFound，实际 %v", err)
	}
}

func TestEngine_本地限流不触碰状态(t *testing.T) {
	api := &fakeChatAPI{}
	tr := thread.New(3)
	tr.Load([]*model.Comment{{ID: "c1"}})
	engine := NewEngine(Config{
		API:                api,
		Thread:             tr,
		TaskID:             "task-1",
		CurrentUserID:      "me",
		MutationsPerMinute: 1,
	})
	ctx := context.Background()

	if err := engine.ToggleLike(ctx, "c1"); err != nil {
		t.Fatalf("第一次操作不应失败: %v", err)
	}
	err := engine.ToggleLike(ctx, "c1")
	if !errors.Is(err, constant.ErrRateLimited) {
		t.Fatalf("突发操作应被限流，实际 %v", err)
	}
	node, _ := tr.Find("c1")
	if !node.HasLiked("me") {
		t.Errorf("被限流的操作不应改动状态: %v", node.Likes)
	}
	if api.likeCalls+api.dislikeCalls != 1 {
		t.Errorf("被限流的操作不应发出请求: %d", api.likeCalls+api.dislikeCalls)
	}
}
