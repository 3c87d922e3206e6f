package bot

import (
	"fmt"
	"strconv"
	"strings"
)

const deepLinkPrefix = "confession_"

// ParseStartPayload extracts a confession ID from a /start deep-link
// payload of the form "confession_<id>". The second return is false for
// an empty or malformed payload.
func ParseStartPayload(payload string) (int64, bool) {
	if !strings.HasPrefix(payload, deepLinkPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(payload, deepLinkPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// DeepLink builds the t.me URL that opens the bot on a confession view.
func DeepLink(botUsername string, confessionID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%s%d", botUsername, deepLinkPrefix, confessionID)
}
