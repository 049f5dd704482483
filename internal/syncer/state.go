package syncer

import (
	"time"

	"github.com/sandeepkv93/daylog/internal/model"
)

type State string

const (
	// StateDisabled is terminal for the session: no remote is reachable.
	StateDisabled State = "Disabled"
	StateIdle     State = "Idle"
	StateSyncing  State = "Syncing"
	// StateError is transient; the next trigger runs a normal cycle.
	StateError State = "Error"
)

// StatusText renders the status line shown to the user.
func StatusText(s State, watermark time.Time) string {
	if s == StateIdle {
		return "Idle · last " + model.FormatTimestamp(watermark)
	}
	return string(s)
}
