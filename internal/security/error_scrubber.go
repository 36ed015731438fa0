// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// maxErrorTextLength はクライアントに返すエラーメッセージの最大文字数。
const maxErrorTextLength = 300

// ErrorTextScrubber はクライアントに返す前のエラーメッセージを無害化する。
type ErrorTextScrubber interface {
	// Scrub はHTMLタグを除去し、空白を1つにまとめ、長すぎるメッセージを切り詰める。
	Scrub(msg string) string
}

// errorScrubber はbluemondayのStrictPolicyでタグを全て取り除く。
type errorScrubber struct {
	policy *bluemonday.Policy
}

// NewErrorTextScrubber はErrorTextScrubberを生成する。
func NewErrorTextScrubber() *errorScrubber {
	return &errorScrubber{policy: bluemonday.StrictPolicy()}
}

// Scrub はエラーメッセージを平文として安全な形に整える。
func (s *errorScrubber) Scrub(msg string) string {
	// StrictPolicyはテキストをHTMLエスケープして返すため、JSON用に戻す
	text := html.UnescapeString(s.policy.Sanitize(msg))
	text = strings.Join(strings.Fields(text), " ")

	if utf8.RuneCountInString(text) > maxErrorTextLength {
		runes := []rune(text)
		text = string(runes[:maxErrorTextLength]) + "..."
	}
	return text
}
