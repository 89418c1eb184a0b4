/*
 * @Description: 统一配置管理 (手动加载)
 * @Author: 安知鱼
 * @Date: 2025-09-01 17:02:36
 * @LastEditTime: 2025-09-01 17:02:44
 * @LastEditors: 安知鱼
 */
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/spf13/viper"
)

// 定义所有已知的配置键
var allKeys = []string{
	KeyAPIBaseURL, KeyAPIToken,
	KeyCommentMaxDepth, KeyCommentDebounceMS, KeyCommentRefreshSpec, KeyCommentRatePerMinute,
	KeyCommentAnchorClass, KeyCommentImageStyle,
}

const (
	KeyAPIBaseURL = "Api.BaseURL"
	KeyAPIToken   = "Api.Token"

	KeyCommentMaxDepth      = "Comment.MaxDepth"
	KeyCommentDebounceMS    = "Comment.DebounceMS"
	KeyCommentRefreshSpec   = "Comment.RefreshSpec"
	KeyCommentRatePerMinute = "Comment.RatePerMinute"
	KeyCommentAnchorClass   = "Comment.AnchorClass"
	KeyCommentImageStyle    = "Comment.ImageStyle"
)

type Config struct {
	vp *viper.Viper
}

// NewConfig 手动加载配置：先用 go-ini 读文件作为默认值，
// 再让 TASKCHAT_ 前缀的环境变量覆盖，保证容器环境下的可靠性。
func NewConfig() (*Config, error) {
	vp := viper.New()
	filePath := "data/conf.ini"

	// --- 步骤 1: 使用 go-ini 从文件加载配置 (作为默认值) ---
	iniCfg, err := ini.Load(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("提示: 未找到 %s，将创建默认配置文件。", filePath)
			if err := createDefaultConfigFile(filePath); err != nil {
				log.Printf("警告: 创建默认配置文件失败: %v，将仅依赖环境变量或内部默认值。", err)
			} else {
				iniCfg, _ = ini.Load(filePath)
			}
		} else {
			return nil, fmt.Errorf("读取配置文件 %s 失败: %w", filePath, err)
		}
	}
	if iniCfg != nil {
		for _, key := range allKeys {
			parts := strings.SplitN(key, ".", 2)
			vp.SetDefault(key, iniCfg.Section(parts[0]).Key(parts[1]).String())
		}
	}

	// --- 步骤 2: 环境变量覆盖 ---
	vp.SetEnvPrefix("TASKCHAT")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	// --- 步骤 3: 内置兜底默认值 ---
	applyFallbacks(vp)

	return &Config{vp: vp}, nil
}

func applyFallbacks(vp *viper.Viper) {
	fallbacks := map[string]string{
		KeyCommentMaxDepth:      "3",
		KeyCommentDebounceMS:    "100",
		KeyCommentRefreshSpec:   "@every 1m",
		KeyCommentRatePerMinute: "30",
	}
	for key, val := range fallbacks {
		if vp.GetString(key) == "" {
			vp.SetDefault(key, val)
		}
	}
}

func createDefaultConfigFile(filePath string) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	content := `[Api]
BaseURL =
Token =

[Comment]
MaxDepth = 3
DebounceMS = 100
RefreshSpec = @every 1m
RatePerMinute = 30
AnchorClass =
ImageStyle =
`
	return os.WriteFile(filePath, []byte(content), 0o644)
}

// GetString 返回字符串配置值。
func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

// GetInt 返回整型配置值。
func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}
