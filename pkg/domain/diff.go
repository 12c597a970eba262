package domain

// SessionDiff represents the changes between two snapshots of a session.
// It is designed to be serialized to JSON for incremental updates on a surface.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	CurrentState *string        `json:"current_state,omitempty"`
	Status       *SessionStatus `json:"status,omitempty"`

	// Reset is true when the transcript was replaced rather than extended
	// (open, re-open, close). Appended then holds the whole new transcript.
	Reset bool `json:"reset,omitempty"`

	// Appended contains the entries added since the old snapshot.
	Appended []Entry `json:"appended,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, the diff describes newSession in full (initial load).
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	if oldSession == nil || oldSession.CurrentState != newSession.CurrentState {
		diff.CurrentState = &newSession.CurrentState
	}
	if oldSession == nil || oldSession.Status != newSession.Status {
		diff.Status = &newSession.Status
	}

	diff.Reset, diff.Appended = diffTranscript(oldSession, newSession)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffTranscript relies on the append-only contract: a longer transcript with
// the same first entry is an extension, anything else is a reset.
func diffTranscript(old, new *Session) (bool, []Entry) {
	if old == nil || old.Status != new.Status {
		return true, CloneTranscript(new.Transcript)
	}

	oldLen := len(old.Transcript)
	newLen := len(new.Transcript)

	if newLen < oldLen || (oldLen > 0 && !sameEntry(old.Transcript[0], new.Transcript[0])) {
		return true, CloneTranscript(new.Transcript)
	}
	if newLen == oldLen {
		return false, nil
	}
	return false, CloneTranscript(new.Transcript[oldLen:])
}

func sameEntry(a, b Entry) bool {
	if a.Speaker != b.Speaker || a.Message != b.Message || len(a.Options) != len(b.Options) {
		return false
	}
	for i := range a.Options {
		if a.Options[i] != b.Options[i] {
			return false
		}
	}
	return true
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.CurrentState == nil &&
		d.Status == nil &&
		!d.Reset &&
		len(d.Appended) == 0
}
