/*
 * @Description: 提及标记的提取、解析与撰写
 * @Author: 安知鱼
 * @Date: 2025-09-01 13:02:11
 * @LastEditTime: 2025-09-01 13:02:18
 * @LastEditors: 安知鱼
 */
package mention

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"

	"github.com/anzhiyu-c/taskchat/pkg/domain/model"
)

// Extract 从富文本中提取提及标记。
// 先扫描 data-id 属性；只要整条消息中存在任何基于 id 的提及，
// 就完全跳过基于 data-value 显示名的提取，两种策略在一条消息内互斥。
// id 比显示名匹配可靠，显示名只是旧内容的兜底。
func Extract(richHTML string) []model.Mention {
	doc, err := html.Parse(strings.NewReader(richHTML))
	if err != nil {
		return nil
	}

	var byID []model.Mention
	var byName []model.Mention
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			var id, name string
			for _, a := range n.Attr {
				switch a.Key {
				case "data-id":
					id = a.Val
				case "data-value":
					name = a.Val
				}
			}
			if id != "" {
				byID = append(byID, model.Mention{ID: id, Name: name})
			} else if name != "" {
				byName = append(byName, model.Mention{Name: name})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(byID) > 0 {
		return byID
	}
	return byName
}

// ResolveEmails 把提取到的提及解析为收件人邮箱列表：
// 按 id 精确匹配，否则按展示名匹配；去重并丢弃未命中和空邮箱。
func ResolveEmails(mentions []model.Mention, directory []*model.User) []string {
	seen := make(map[string]struct{})
	var emails []string
	for _, m := range mentions {
		user := lookup(m, directory)
		if user == nil || user.Email == "" {
			continue
		}
		if _, ok := seen[user.Email]; ok {
			continue
		}
		seen[user.Email] = struct{}{}
		emails = append(emails, user.Email)
	}
	return emails
}

func lookup(m model.Mention, directory []*model.User) *model.User {
	if m.ID != "" {
		for _, u := range directory {
			if u.ID == m.ID {
				return u
			}
		}
	}
	if m.Name != "" {
		for _, u := range directory {
			if u.DisplayName() == m.Name {
				return u
			}
		}
	}
	return nil
}

// EmailsJSON 把邮箱列表编码为出站请求使用的 JSON 数组字符串。
// 列表为空时返回 ok=false，调用方必须在请求体中整体省略该字段，
// 绝不发送空数组。
func EmailsJSON(emails []string) (string, bool) {
	if len(emails) == 0 {
		return "", false
	}
	data, err := json.Marshal(emails)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// InsertMention 是撰写方向：把草稿中的 @partial 片段替换为携带
// id 和显示名的提及标记，后面跟一个普通空格（渲染层据此把光标
// 定位到空格之后）。partial 不带 @ 前缀。
func InsertMention(draft, partial string, user *model.User) string {
	if user == nil {
		return draft
	}
	name := user.DisplayName()
	markup := `<span class="mention" data-id="` + html.EscapeString(user.ID) +
		`" data-value="` + html.EscapeString(name) + `">@` + html.EscapeString(name) + `</span> `
	return strings.Replace(draft, "@"+partial, markup, 1)
}
