package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// mentionPattern matches Feishu mention placeholders (@_user_1, @_user_2...)
// embedded in message text.
var mentionPattern = regexp.MustCompile(`@_user_\d+`)

// StripMentions removes mention placeholders ahead of command parsing.
// The raw text, placeholders included, is what gets echoed back.
func StripMentions(text string) string {
	return strings.TrimSpace(mentionPattern.ReplaceAllString(text, ""))
}

// FormatMention renders the inline at-mention tag Feishu understands in
// plain text messages.
func FormatMention(userID string) string {
	return fmt.Sprintf("<at user_id=%q>@member</at>", userID)
}
