package prompt

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode 输入开头的模式标签
type Mode string

const (
	ModeNone    Mode = ""
	ModeWaiting Mode = "waiting"
	ModeWork    Mode = "work"
	ModeEdit    Mode = "edit"
	ModeNote    Mode = "note"
)

// Modes 所有可识别的模式
var Modes = []Mode{ModeWaiting, ModeWork, ModeEdit, ModeNote}

var modeTagRe = regexp.MustCompile(`(?i)^#(waiting|work|edit|note)`)

// ParseMode 解析开头的 #mode 标签，返回模式和去掉标签后的正文。
// 没有标签时返回 ModeNone 和去掉首尾空白的原文。
func ParseMode(text string) (Mode, string) {
	rest := strings.TrimLeftFunc(text, unicode.IsSpace)

	loc := modeTagRe.FindStringSubmatchIndex(rest)
	if loc == nil || !atWordBoundary(rest[loc[1]:]) {
		return ModeNone, strings.TrimSpace(text)
	}

	mode := Mode(strings.ToLower(rest[loc[2]:loc[3]]))
	return mode, strings.TrimSpace(rest[loc[1]:])
}

// atWordBoundary 标签后紧跟的字符不能是字母、数字或下划线（按 Unicode 判断）
func atWordBoundary(s string) bool {
	if s == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s)
	return !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r))
}

// String 返回模式名，ModeNone 返回 "none"
func (m Mode) String() string {
	if m == ModeNone {
		return "none"
	}
	return string(m)
}
