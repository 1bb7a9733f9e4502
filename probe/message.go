package probe

import (
	"strings"

	"github.com/tidwall/gjson"
)

// MessageKeys are the places upstreams put a human-readable message.
var MessageKeys = []string{
	"message_zh",
	"message",
	"msg",
	"detail.message_zh",
	"detail.message",
	"detail",
	"error.message",
	"error",
}

const maxMessageLen = 300

// Message extracts an upstream message from a response body. Non-JSON bodies
// are returned as trimmed text.
func Message(body []byte) string {
	if !gjson.ValidBytes(body) {
		return truncate(strings.TrimSpace(string(body)))
	}
	v, ok := First(gjson.ParseBytes(body), MessageKeys, func(r gjson.Result) bool {
		return r.Type == gjson.String && r.Str != ""
	})
	if !ok {
		return ""
	}
	return truncate(v.Str)
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxMessageLen {
		return s
	}
	return string(r[:maxMessageLen])
}
