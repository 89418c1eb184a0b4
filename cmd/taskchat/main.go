/*
 * @Description: taskchat 命令行：从终端向任务线程发送一条评论
 * @Author: 安知鱼
 * @Date: 2025-09-01 17:22:30
 * @LastEditTime: 2025-09-01 17:22:38
 * @LastEditors: 安知鱼
 */
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/anzhiyu-c/taskchat/internal/infra/api"
	"github.com/anzhiyu-c/taskchat/internal/pkg/parser"
	"github.com/anzhiyu-c/taskchat/internal/pkg/strutil"
	"github.com/anzhiyu-c/taskchat/pkg/config"
	"github.com/anzhiyu-c/taskchat/pkg/domain/repository"
	"github.com/anzhiyu-c/taskchat/pkg/service/pipeline"
	"github.com/anzhiyu-c/taskchat/pkg/service/utility"
)

func main() {
	var (
		taskID   string
		sender   string
		replyTo  string
		message  string
		markdown bool
		preview  bool
	)
	flag.StringVar(&taskID, "task", "", "任务ID")
	flag.StringVar(&sender, "sender", "", "发送者用户ID")
	flag.StringVar(&replyTo, "reply-to", "", "被回复的评论ID（留空为顶级评论）")
	flag.StringVar(&message, "message", "", "评论内容")
	flag.BoolVar(&markdown, "markdown", false, "内容按 Markdown 解析")
	flag.BoolVar(&preview, "preview", false, "只打印管线处理结果，不发送请求")
	flag.Parse()

	if message == "" {
		log.Fatal("必须通过 -message 提供评论内容")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	content := message
	if markdown {
		content, err = parser.MarkdownToHTML(message)
		if err != nil {
			log.Fatalf("Markdown 解析失败: %v", err)
		}
	}

	policy := buildPolicy(cfg)
	processed := pipeline.Sanitize(pipeline.Linkify(content), policy)
	if parser.IsEffectivelyEmpty(processed) {
		log.Fatal("评论内容为空，已取消发送")
	}
	if preview {
		fmt.Println(processed)
		return
	}

	if taskID == "" || sender == "" {
		log.Fatal("发送评论需要 -task 和 -sender")
	}

	client := api.NewHTTPChatAPI(cfg.GetString(config.KeyAPIBaseURL), func() string {
		return cfg.GetString(config.KeyAPIToken)
	})

	params := &repository.CreateReplyParams{
		TaskID:   taskID,
		SenderID: sender,
		Message:  processed,
	}
	if replyTo != "" {
		params.ReplyToID = &replyTo
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	created, err := client.CreateReply(ctx, params)
	if err != nil {
		log.Fatalf("发送评论失败: %v", err)
	}

	snippet := strutil.Truncate(parser.StripHTML(created.Message), 60)
	fmt.Printf("评论已发送 [%s] %s（%s）\n",
		created.ID, snippet, utility.RelativeTime(created.Timestamp, time.Now()))
}

// buildPolicy 在默认净化策略上套用配置里的产品规则覆盖。
func buildPolicy(cfg *config.Config) *pipeline.SanitizationPolicy {
	policy := pipeline.DefaultPolicy()
	if v := cfg.GetString(config.KeyCommentAnchorClass); v != "" {
		policy.AnchorClass = v
	}
	if v := cfg.GetString(config.KeyCommentImageStyle); v != "" {
		policy.ImageStyle = v
	}
	return policy
}
