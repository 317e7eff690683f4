package htmlutil

import "strings"

var escaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&#x27;",
	"<", "&lt;",
	">", "&gt;",
	"/", "&#x2F;",
	`\`, "&#x5C;",
	"`", "&#96;",
)

// Escape neutralizes markup in user input before it is stored or displayed.
// Besides the usual HTML specials it also replaces slashes, backslashes, and
// backticks so escaped values are safe in attribute and script contexts.
func Escape(s string) string {
	return escaper.Replace(s)
}
