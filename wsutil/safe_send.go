package wsutil

import (
	"encoding/json"
	"log/slog"
)

// SafeSend queues data on ch without blocking or panicking. It reports
// whether the message was queued; a full or closed channel drops it.
func SafeSend(ch chan []byte, data []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("send on closed channel", "tag", "wsutil", "panic", r)
			sent = false
		}
	}()
	select {
	case ch <- data:
		return true
	default:
		return false
	}
}

// SendJSON marshals v and queues it with SafeSend.
func SendJSON(ch chan []byte, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("marshaling message", "tag", "wsutil", "err", err)
		return false
	}
	return SafeSend(ch, data)
}
