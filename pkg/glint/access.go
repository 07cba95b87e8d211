package glint

import "glint/internal/platform"

// TranslateAccessEvent turns a host accessibility event into a postable
// UserEvent. Initial-tree and deactivation notifications carry no action and
// translate to nothing; the second return is false for those.
func TranslateAccessEvent(ev platform.Event) (UserEvent, bool) {
	if ev.Type != platform.EventAccess {
		return nil, false
	}
	switch ev.Access {
	case platform.AccessActionRequested:
		return AccessActionRequest{Action: ev.Action, Window: ev.Window}, true
	default:
		return nil, false
	}
}
