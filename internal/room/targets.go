package room

// targetRegistry mirrors the set of browser targets from lifecycle events
// and synthesizes the events a freshly-attaching agent expects (spec §3
// "Target"; §4.3/§4.4, C5).
type targetRegistry struct {
	bySession map[string]*Target
}

func newTargetRegistry() *targetRegistry {
	return &targetRegistry{bySession: make(map[string]*Target)}
}

func (t *targetRegistry) attach(sessionID, targetID string, info TargetInfo) {
	t.bySession[sessionID] = &Target{SessionID: sessionID, TargetID: targetID, Info: info}
}

func (t *targetRegistry) detach(sessionID string) {
	delete(t.bySession, sessionID)
}

// infoChanged replaces the info of whichever target has a matching
// TargetID (spec §4.4: "find the target whose targetId matches").
func (t *targetRegistry) infoChanged(targetID string, info TargetInfo) {
	for _, tgt := range t.bySession {
		if tgt.TargetID == targetID {
			tgt.Info = info
			return
		}
	}
}

// navigateTopFrame applies a Page.frameNavigated update for a top frame:
// url always updates, title only updates when frameName is non-empty
// (spec §4.4).
func (t *targetRegistry) navigateTopFrame(sessionID, url, frameName string) {
	tgt, ok := t.bySession[sessionID]
	if !ok {
		return
	}
	tgt.Info.URL = url
	if frameName != "" {
		tgt.Info.Title = frameName
	}
}

func (t *targetRegistry) bySessionID(sessionID string) (*Target, bool) {
	tgt, ok := t.bySession[sessionID]
	return tgt, ok
}

func (t *targetRegistry) byTargetID(targetID string) (*Target, bool) {
	for _, tgt := range t.bySession {
		if tgt.TargetID == targetID {
			return tgt, true
		}
	}
	return nil, false
}

// first returns an arbitrary target, used only for the legacy
// getTargetInfo fallback (spec §9, open question).
func (t *targetRegistry) first() (*Target, bool) {
	for _, tgt := range t.bySession {
		return tgt, true
	}
	return nil, false
}

// snapshot returns all targets for synthesizing bookkeeping events, in map
// iteration order, which is unspecified and may differ between calls.
func (t *targetRegistry) snapshot() []*Target {
	out := make([]*Target, 0, len(t.bySession))
	for _, tgt := range t.bySession {
		out = append(out, tgt)
	}
	return out
}

func (t *targetRegistry) clear() {
	t.bySession = make(map[string]*Target)
}
