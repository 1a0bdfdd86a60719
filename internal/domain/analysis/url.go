package analysis

import (
	"net/url"
	"strings"
)

// RedactURL drops any userinfo (user, password or token) from a repository
// URL so it can be logged and stored. Inputs that are not parseable URLs,
// such as scp-like git@host:path addresses, are returned unchanged.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = nil
	return u.String()
}

// ScrubURL replaces every occurrence of raw in text with its redacted form,
// along with the bare userinfo, which git may echo in its own messages.
func ScrubURL(text, raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return text
	}
	text = strings.ReplaceAll(text, raw, RedactURL(raw))
	return strings.ReplaceAll(text, u.User.String()+"@", "")
}
