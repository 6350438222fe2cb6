package telegram

import "strings"

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\", "_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-", "=", "\\=",
	"|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

var preEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`")

// escape makes s safe for MarkdownV2 outside of code blocks.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func pre(s string) string {
	return "```\n" + preEscaper.Replace(s) + "```"
}
