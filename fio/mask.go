package fio

import (
	"net/url"
	"strings"
)

const tokenPlaceholder = "<token>"

// MaskToken replaces every occurrence of the token in text, including its
// URL-encoded form, with a fixed placeholder. Error text reaching logs or
// callers must always pass through here first; tokens grant full read
// access to the account statement.
func MaskToken(text, token string) string {
	if token == "" || text == "" {
		return text
	}

	masked := strings.ReplaceAll(text, token, tokenPlaceholder)

	if encoded := url.QueryEscape(token); encoded != token {
		masked = strings.ReplaceAll(masked, encoded, tokenPlaceholder)
	}

	return masked
}

// MaskTokenDisplay shortens a token for configuration echoes: first and
// last four characters kept, the middle starred out.
func MaskTokenDisplay(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
