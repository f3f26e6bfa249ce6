package prompt

import (
	"strings"

	"github.com/jarvisbot/jarvis-gateway/internal/config"
)

const (
	// Separator 前言与正文之间的分隔
	Separator = "\n\n"
	// SpeakerLabel 正文前的说话人标签
	SpeakerLabel = "ユーザー: "
)

// Composer 把模式前言和用户正文拼成上游唯一的 text 字段
type Composer struct {
	base     string
	suffixes map[Mode]string
}

// NewComposer 创建前言拼接器
func NewComposer(cfg config.PromptConfig) *Composer {
	suffixes := make(map[Mode]string, len(cfg.Modes))
	for name, suffix := range cfg.Modes {
		suffixes[Mode(strings.ToLower(name))] = suffix
	}
	return &Composer{
		base:     cfg.Base,
		suffixes: suffixes,
	}
}

// Preamble 返回模式对应的前言；ModeNone 或未知模式只返回公共部分
func (c *Composer) Preamble(mode Mode) string {
	return c.base + c.suffixes[mode]
}

// Compose 解析模式并生成转发给上游的文本
func (c *Composer) Compose(text string) (Mode, string) {
	mode, stripped := ParseMode(text)

	var b strings.Builder
	b.WriteString(c.Preamble(mode))
	b.WriteString(Separator)
	b.WriteString(SpeakerLabel)
	b.WriteString(stripped)
	return mode, b.String()
}
