// pkg/domain/model/user.go
package model

import "strings"

// User 是用户目录中的一条记录。
// 目录由外部协作者维护并只读传入，本子系统只用它做提及解析和注销判定。
type User struct {
	ID        string
	Name      string // 显示名，可能为空
	FirstName string
	LastName  string
	Email     string
	IsDeleted bool // 目录自身标记的注销状态
}

// DisplayName 返回用户的展示名称：优先使用显示名，否则拼接姓名。
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Mention 是从富文本标记中提取出的一条提及。
// ID 存在时优先使用（比显示名匹配更可靠），Name 是只捕获到显示标签时的兜底。
type Mention struct {
	ID   string
	Name string
}
