package transport

import "errors"

// SendError wraps a per-recipient delivery failure with the one
// classification the broadcast core cares about: whether the recipient
// can be reached at all (blocked the bot, deactivated account, chat gone).
//
// Adapters must produce SendError for every failed send so callers never
// have to inspect platform error strings.
type SendError struct {
	Unreachable bool
	Err         error
}

func (e *SendError) Error() string {
	if e.Err == nil {
		return "send failed"
	}
	return "send failed: " + e.Err.Error()
}

func (e *SendError) Unwrap() error { return e.Err }

// IsRecipientUnreachable reports whether err means the recipient is
// permanently unable to receive messages from the bot.
func IsRecipientUnreachable(err error) bool {
	var se *SendError
	return errors.As(err, &se) && se.Unreachable
}
