// events.go records document and plan changes in the operational log.

package core

import "github.com/jpl-au/quill/extension"

// HandleEvent logs each change at debug level.
func (e *Extension) HandleEvent(ctx extension.Context, ev extension.Event) error {
	l := ctx.Logger().With("event", string(ev.EventType()), "subject", ev.EventSubject())
	switch ev := ev.(type) {
	case extension.DocumentWriteEvent:
		l.Debug("document written", "user", ev.UserID, "version", ev.VersionNumber, "by", string(ev.CreatedBy))
	case extension.DocumentDeleteEvent:
		l.Debug("document deleted", "user", ev.UserID, "versions", ev.Versions)
	case extension.DocumentRestoreEvent:
		l.Debug("version restored", "user", ev.UserID, "from", ev.FromVersion, "version", ev.VersionNumber)
	case extension.PlanEvent:
		l.Debug("plan changed", "chat", ev.ChatID, "status", string(ev.Status), "steps", ev.Steps)
	}
	return nil
}
