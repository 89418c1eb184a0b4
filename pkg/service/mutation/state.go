// pkg/service/mutation/state.go
package mutation

// Kind 标识一次变更的种类。同一节点上不同种类的变更互不协调，
// 各自持有独立的阶段标记和回滚快照，避免互相污染。
type Kind int

const (
	KindLike Kind = iota
	KindReply
	KindEdit
	KindDelete
)

// Phase 是单次变更的统一状态机：Idle → Pending → {Committed | RolledBack}。
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePending
	PhaseCommitted
	PhaseRolledBack
)

type phaseKey struct {
	commentID string
	kind      Kind
}

// Notifier 接收变更结果的用户可见通知。所有网络失败都会在引擎边界
// 转换为状态回滚加一条瞬时通知，不会作为未处理错误继续向外扩散。
type Notifier interface {
	Error(message string)
	Success(message string)
}

// NopNotifier 是不展示任何通知的实现，测试和无界面场景使用。
type NopNotifier struct{}

func (NopNotifier) Error(string)   {}
func (NopNotifier) Success(string) {}
