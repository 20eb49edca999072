package tgui

import "strings"

// MaxCallbackDataLen is Telegram's callback_data size limit in bytes,
// counting the full "action:payload" string.
const MaxCallbackDataLen = 64

// Data formats inline callback data as "action" or "action:payload".
func Data(action, payload string) string {
	action = strings.TrimSpace(action)
	if payload == "" {
		return action
	}
	return action + ":" + payload
}

// Split parses callback data produced by Data. Telegram prefixes
// callback data with "\f" for buttons created via tele.Btn; the prefix
// is stripped before parsing.
func Split(data string) (action, payload string) {
	data = strings.TrimPrefix(data, "\f")
	action, payload, _ = strings.Cut(data, ":")
	return strings.TrimSpace(action), payload
}
