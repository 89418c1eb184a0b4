/*
 * @Description: 链接识别与富文本二次规整
 * @Author: 安知鱼
 * @Date: 2025-09-01 11:36:50
 * @LastEditTime: 2025-09-01 11:36:57
 * @LastEditors: 安知鱼
 */
package pipeline

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	// @https://... 形式：@ 作为可见前缀保留在锚点文本里，但不进入 href。
	// 只在行首或空白后匹配，锚点文本里的 @URL（前导字符是 >）不会被二次包裹
	atURLRegex = regexp.MustCompile(`(^|\s)@(https?://[^\s<]+)`)

	// 裸 URL：前导字符排除 @（规则一的输出）和 "'>=（已在标签/属性里的内容）
	bareURLRegex = regexp.MustCompile(`(^|[^@"'>=\w])(https?://[^\s<]+)`)

	// 站内任务深链接：带 taskId 查询串的路径
	taskLinkRegex = regexp.MustCompile(`(^|\s)(/[\w\-/]*\?[^\s<"']*taskId=[^\s<"']+)`)

	// 以裸文本出现的对象存储图片直链，规整时提升为 <img>
	storageImageRegex = regexp.MustCompile(`https?://(?:[\w\-]+\.)?(?:storage\.googleapis\.com|s3[\w\-.]*\.amazonaws\.com|firebasestorage\.googleapis\.com)/[^\s<"']+`)

	trailingPunct = ".,!?;:)"
)

// Linkify 在净化之前运行，把纯文本中的链接改写为锚点标记。
// 三条规则的先后顺序是契约的一部分：后面的规则不得重新匹配前面规则的输出，
// 已经是锚点目标或图片 src 的 URL 不会被再次包裹。
func Linkify(text string) string {
	// 规则一：@URL 片段，@ 留在可见文本中，href 不含 @
	out := atURLRegex.ReplaceAllString(text, `$1<a href="$2">@$2</a>`)

	// 规则二：裸 URL，结尾多出的一个标点不计入链接
	out = bareURLRegex.ReplaceAllStringFunc(out, func(m string) string {
		sub := bareURLRegex.FindStringSubmatch(m)
		prefix, link := sub[1], sub[2]
		var tail string
		if len(link) > 0 && strings.ContainsRune(trailingPunct, rune(link[len(link)-1])) {
			tail = link[len(link)-1:]
			link = link[:len(link)-1]
		}
		return prefix + `<a href="` + link + `">` + link + `</a>` + tail
	})

	// 规则三：站内任务深链接
	out = taskLinkRegex.ReplaceAllString(out, `$1<a href="$2" class="task-link">$2</a>`)

	return out
}

// NormalizeRich 是渲染前对已处理富文本的二次规整：
//   - 把样式不完整的 <img> 统一为规范形态（限高样式、缺省 alt）；
//   - 相对图片路径基于 baseURL 解析为绝对地址；
//   - 以裸文本出现的对象存储图片直链提升为 <img> 标签；
//   - 剥掉链接上禁用交互的属性，保证行内点击仍然生效。
func NormalizeRich(richHTML string, policy *SanitizationPolicy, baseURL string) string {
	if policy == nil {
		policy = DefaultPolicy()
	}
	nodes, err := parseFragment(richHTML)
	if err != nil {
		return richHTML
	}
	for _, n := range nodes {
		normalizeNode(n, policy, baseURL)
	}
	out, err := renderFragment(nodes)
	if err != nil {
		return richHTML
	}
	return out
}

func normalizeNode(n *html.Node, policy *SanitizationPolicy, baseURL string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "img":
			ensureStyle(n, policy.ImageStyle)
			if getAttr(n, "alt") == "" {
				setAttr(n, "alt", policy.ImageAlt)
			}
			if src := getAttr(n, "src"); src != "" {
				setAttr(n, "src", resolveAgainstBase(src, baseURL))
			}
			return // img 没有子节点
		case "a":
			removeAttr(n, "contenteditable")
		}
	}

	// 先收集再改写，避免遍历中修改兄弟链
	var texts []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && n.Data != "a" {
			texts = append(texts, c)
		}
	}
	for _, tn := range texts {
		promoteStorageImages(tn, policy)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		normalizeNode(c, policy, baseURL)
	}
}

// promoteStorageImages 把文本节点中的对象存储图片直链替换为 <img> 节点。
func promoteStorageImages(tn *html.Node, policy *SanitizationPolicy) {
	text := tn.Data
	locs := storageImageRegex.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return
	}
	parent := tn.Parent
	pos := 0
	for _, loc := range locs {
		if loc[0] > pos {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text[pos:loc[0]]}, tn)
		}
		img := &html.Node{
			Type: html.ElementNode,
			Data: "img",
			Attr: []html.Attribute{
				{Key: "src", Val: text[loc[0]:loc[1]]},
				{Key: "alt", Val: policy.ImageAlt},
				{Key: "style", Val: policy.ImageStyle},
			},
		}
		parent.InsertBefore(img, tn)
		pos = loc[1]
	}
	if pos < len(text) {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text[pos:]}, tn)
	}
	parent.RemoveChild(tn)
}

// resolveAgainstBase 把相对路径解析为基于 baseURL 的绝对地址，
// 绝对地址和 data URI 原样返回。
func resolveAgainstBase(src, baseURL string) string {
	if baseURL == "" ||
		strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") ||
		strings.HasPrefix(src, "data:") {
		return src
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}

// ExtractImageURLs 收集富文本中所有 <img> 的 src，用于编辑请求的图片列表。
func ExtractImageURLs(richHTML string) []string {
	nodes, err := parseFragment(richHTML)
	if err != nil {
		return nil
	}
	var urls []string
	for _, n := range nodes {
		walkNodes(n, func(node *html.Node) {
			if node.Type == html.ElementNode && node.Data == "img" {
				if src := getAttr(node, "src"); src != "" {
					urls = append(urls, src)
				}
			}
		})
	}
	return urls
}
