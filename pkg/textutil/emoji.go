// Package textutil holds text normalization helpers for package metadata.
package textutil

import "github.com/enescakir/emoji"

// ReplaceShorthandEmojis expands GitHub-style shorthand codes such as
// ":smile:" into the corresponding emoji. Unknown codes are left as is.
func ReplaceShorthandEmojis(s string) string {
	if s == "" {
		return s
	}
	return emoji.Parse(s)
}
