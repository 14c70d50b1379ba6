package services

import (
	"time"

	"github.com/tbourn/pactkeeper/internal/utils"
)

// Calendar resolves the current instant and calendar dates in the configured
// time zone. The zero value uses the system clock and UTC.
type Calendar struct {
	Now utils.Clock
	Loc *time.Location
}

func (c Calendar) now() time.Time {
	if c.Now == nil {
		return utils.SystemClock()
	}
	return c.Now().UTC()
}

// Today returns the current calendar date (YYYY-MM-DD).
func (c Calendar) Today() string { return utils.DateIn(c.now(), c.Loc) }

// Yesterday returns the calendar date before Today.
func (c Calendar) Yesterday() string { return utils.YesterdayIn(c.now(), c.Loc) }

// ChangeNotifier is told after a user's contracts changed so live
// subscribers can reload.
type ChangeNotifier interface {
	Notify(userID string)
}

func notify(n ChangeNotifier, userID string) {
	if n != nil {
		n.Notify(userID)
	}
}
