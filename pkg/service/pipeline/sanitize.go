/*
 * @Description: 富文本净化管线
 * @Author: 安知鱼
 * @Date: 2025-09-01 11:28:05
 * @LastEditTime: 2025-09-01 11:28:12
 * @LastEditors: 安知鱼
 */
package pipeline

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sanitize 按白名单策略净化任意 HTML，并对结果做统一后处理：
// 每个锚点强制在新上下文打开、不携带 referrer 并带上统一样式类；
// 每个图片补齐限高样式和缺省 alt，src 原样保留，不做二次转义或截断；
// 列表容器补上统一样式类。
// 对已净化的输出再次调用是幂等的（稳定不动点）。
// 畸形输入不会导致报错，只会被逐段剥除。
func Sanitize(rawHTML string, policy *SanitizationPolicy) string {
	if policy == nil {
		policy = DefaultPolicy()
	}
	safe := policy.build().Sanitize(rawHTML)
	out, err := applyForcedAttrs(safe, policy)
	if err != nil {
		// 结构解析失败时降级为仅白名单净化的结果，绝不向上抛错
		return safe
	}
	return out
}

// applyForcedAttrs 是净化后的统一处理钩子，逐节点补齐策略要求的属性。
func applyForcedAttrs(safeHTML string, policy *SanitizationPolicy) (string, error) {
	nodes, err := parseFragment(safeHTML)
	if err != nil {
		return "", err
	}
	for _, n := range nodes {
		walkNodes(n, func(node *html.Node) {
			if node.Type != html.ElementNode {
				return
			}
			switch node.Data {
			case "a":
				setAttr(node, "target", policy.AnchorTarget)
				setAttr(node, "rel", policy.AnchorRel)
				addClassToken(node, policy.AnchorClass)
			case "img":
				ensureStyle(node, policy.ImageStyle)
				if getAttr(node, "alt") == "" {
					setAttr(node, "alt", policy.ImageAlt)
				}
			case "ul", "ol":
				addClassToken(node, policy.ListClass)
			}
		})
	}
	return renderFragment(nodes)
}

// --- 片段解析/渲染与节点小工具 ---

func parseFragment(s string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(strings.NewReader(s), ctx)
}

func renderFragment(nodes []*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// walkNodes 先序遍历以 n 为根的子树。
func walkNodes(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNodes(c, fn)
	}
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// addClassToken 在 class 中追加一个样式类，已存在时不重复追加。
func addClassToken(n *html.Node, token string) {
	if token == "" {
		return
	}
	current := getAttr(n, "class")
	for _, t := range strings.Fields(current) {
		if t == token {
			return
		}
	}
	if current == "" {
		setAttr(n, "class", token)
		return
	}
	setAttr(n, "class", current+" "+token)
}

// ensureStyle 保证 style 中包含指定的样式声明，已包含时保持原样。
func ensureStyle(n *html.Node, style string) {
	if style == "" {
		return
	}
	current := getAttr(n, "style")
	if strings.Contains(current, style) {
		return
	}
	if current == "" {
		setAttr(n, "style", style)
		return
	}
	if !strings.HasSuffix(strings.TrimSpace(current), ";") {
		current += ";"
	}
	setAttr(n, "style", current+style)
}
