/*
 * @Description: 声明式的富文本净化策略
 * @Author: 安知鱼
 * @Date: 2025-09-01 11:20:33
 * @LastEditTime: 2025-09-01 11:20:40
 * @LastEditors: 安知鱼
 */
package pipeline

import "github.com/microcosm-cc/bluemonday"

// SanitizationPolicy 以纯数据的形式描述净化规则：放行哪些标签和属性、
// 净化后强制补上哪些属性。产品规则演进时只改这份数据，不动管线逻辑。
// 策略作为参数逐次传入 Sanitize，不存在任何全局可变配置。
type SanitizationPolicy struct {
	// AllowedTags 是标签白名单，未列出的标签（包括 script/style）一律剥除。
	AllowedTags []string

	// GlobalAttrs 允许出现在任何已放行标签上的属性。
	// 事件处理属性（onerror、onclick 等）永远不在此列。
	GlobalAttrs []string

	// TagAttrs 是按标签追加的属性白名单。
	TagAttrs map[string][]string

	// URLSchemes 是 href/src 允许的协议。
	URLSchemes []string

	// --- 后处理钩子：净化完成后统一补齐的属性 ---

	AnchorTarget string // 锚点强制在新上下文打开
	AnchorRel    string // 锚点强制的 rel，切断 referrer
	AnchorClass  string // 锚点统一的视觉样式类
	ImageStyle   string // 图片强制的限高样式
	ImageAlt     string // 图片缺省的 alt 文案
	ListClass    string // 列表容器统一的样式类
}

// DefaultPolicy 返回任务评论的默认净化策略：
// 行内格式、段落/列表容器、锚点、图片和受限的 video/source 组合。
func DefaultPolicy() *SanitizationPolicy {
	return &SanitizationPolicy{
		AllowedTags: []string{
			"p", "br", "div", "span",
			"b", "strong", "i", "em", "u", "s", "sub", "sup",
			"ul", "ol", "li", "blockquote", "pre", "code",
			"a", "img", "video", "source",
		},
		GlobalAttrs: []string{"class", "style"},
		TagAttrs: map[string][]string{
			"a":      {"href", "target", "rel"},
			"img":    {"src", "alt", "width", "height"},
			"span":   {"data-id", "data-value", "data-denotation-char"},
			"video":  {"src", "poster", "controls", "preload", "width", "height"},
			"source": {"src", "type"},
		},
		URLSchemes:   []string{"http", "https"},
		AnchorTarget: "_blank",
		AnchorRel:    "noopener noreferrer nofollow",
		AnchorClass:  "chat-link",
		ImageStyle:   "max-height:240px",
		ImageAlt:     "评论图片",
		ListClass:    "chat-list",
	}
}

// build 把声明式策略编译为 bluemonday 策略。
func (p *SanitizationPolicy) build() *bluemonday.Policy {
	pol := bluemonday.NewPolicy()
	pol.AllowElements(p.AllowedTags...)
	if len(p.GlobalAttrs) > 0 {
		pol.AllowAttrs(p.GlobalAttrs...).Globally()
	}
	for tag, attrs := range p.TagAttrs {
		pol.AllowAttrs(attrs...).OnElements(tag)
	}
	if len(p.URLSchemes) > 0 {
		pol.AllowURLSchemes(p.URLSchemes...)
	}
	// 站内任务深链接是相对路径
	pol.AllowRelativeURLs(true)
	pol.AllowDataURIImages()
	return pol
}
