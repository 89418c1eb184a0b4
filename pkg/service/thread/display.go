// pkg/service/thread/display.go
package thread

import (
	"strings"

	"github.com/anzhiyu-c/taskchat/pkg/domain/model"
)

// DeletedMarker 是注销用户的展示后缀。
const DeletedMarker = "（已注销）"

// UnknownLabel 是完全无法解析发送者时的兜底文案。
const UnknownLabel = "未知用户"

// Directory 是展示名解析的只读输入：活跃用户目录和已知的注销用户ID集合。
// 两者都由外部协作者维护并传入，本子系统从不修改。
type Directory struct {
	Users      []*model.User
	DeletedIDs map[string]struct{}
}

// FindUser 按ID在目录中查找用户。
func (d *Directory) FindUser(id string) *model.User {
	if d == nil {
		return nil
	}
	for _, u := range d.Users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// IsDeletedSender 判定评论的发送者是否已注销：
// 发送者ID出现在已知注销集合中，或在活跃目录中完全缺席，
// 或目录中的记录自身带注销标记、展示名已含注销后缀。
// 目录不可用时按注销降级处理，渲染不因此被阻塞。
func IsDeletedSender(c *model.Comment, dir *Directory) bool {
	if dir != nil {
		if _, ok := dir.DeletedIDs[c.SenderID]; ok {
			return true
		}
	}
	user := dir.FindUser(c.SenderID)
	if user == nil {
		return true
	}
	if user.IsDeleted {
		return true
	}
	return strings.Contains(user.DisplayName(), DeletedMarker)
}

// DisplayName 解析评论作者的展示名，优先级从高到低：
//  1. 发送者已注销：冗余存储的昵称加注销后缀，没有昵称则只用后缀；
//  2. 评论上显式的发送者昵称；
//  3. 目录用户的显示名；
//  4. 目录用户拼接的姓名；
//  5. 兜底的"未知用户"。
func DisplayName(c *model.Comment, dir *Directory) string {
	if IsDeletedSender(c, dir) {
		if c.SenderName != "" {
			return c.SenderName + DeletedMarker
		}
		return DeletedMarker
	}
	if c.SenderName != "" {
		return c.SenderName
	}
	user := dir.FindUser(c.SenderID)
	if user != nil {
		if user.Name != "" {
			return user.Name
		}
		if full := strings.TrimSpace(user.FirstName + " " + user.LastName); full != "" {
			return full
		}
	}
	return UnknownLabel
}
