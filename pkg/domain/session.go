package domain

// SessionStatus tells whether a session can still accept selections.
type SessionStatus string

const (
	StatusOpen   SessionStatus = "open"   // Accepting selections
	StatusClosed SessionStatus = "closed" // Surface closed, transcript discarded
)

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerBot  Speaker = "bot"
)

// Entry is one turn of the transcript.
type Entry struct {
	Speaker Speaker `json:"speaker"`
	Message string  `json:"message"`

	// Options is only set on bot entries: the choices offered at that turn,
	// kept so a surface can re-render past turns.
	Options []Option `json:"options,omitempty"`
}

// BotEntry builds the transcript entry that presents a node.
func BotEntry(node Node) Entry {
	return Entry{
		Speaker: SpeakerBot,
		Message: node.Message,
		Options: CloneOptions(node.Options),
	}
}

// UserEntry builds the transcript entry that records a chosen option.
func UserEntry(opt Option) Entry {
	return Entry{
		Speaker: SpeakerUser,
		Message: opt.Text,
	}
}

// Session pairs the current state of the conversation with its transcript.
// A session value is owned by exactly one surface.
type Session struct {
	ID string `json:"id"`

	// CurrentState always names an entry of the response table while open.
	CurrentState string `json:"current_state"`

	Status SessionStatus `json:"status"`

	// Transcript is append-only during the lifetime of an open session.
	Transcript []Entry `json:"transcript"`
}

// NewSession creates an open session positioned at the given greeting node,
// with a transcript holding exactly the greeting entry.
func NewSession(id string, greeting Node) *Session {
	return &Session{
		ID:           id,
		CurrentState: greeting.ID,
		Status:       StatusOpen,
		Transcript:   []Entry{BotEntry(greeting)},
	}
}

// IsOpen reports whether the session accepts selections.
func (s *Session) IsOpen() bool {
	return s != nil && s.Status == StatusOpen
}

// LastBot returns the most recent bot entry, which holds the options currently on display.
func (s *Session) LastBot() (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	for i := len(s.Transcript) - 1; i >= 0; i-- {
		if s.Transcript[i].Speaker == SpeakerBot {
			return s.Transcript[i], true
		}
	}
	return Entry{}, false
}

// CurrentOptions returns a copy of the options currently on display.
func (s *Session) CurrentOptions() []Option {
	last, ok := s.LastBot()
	if !ok {
		return nil
	}
	return CloneOptions(last.Options)
}

// Snapshot returns a deep copy of the session, safe to hand to a surface.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Transcript = CloneTranscript(s.Transcript)
	return &out
}

// CloneTranscript deep-copies a transcript.
func CloneTranscript(entries []Entry) []Entry {
	if entries == nil {
		return nil
	}
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e
		out[i].Options = CloneOptions(e.Options)
	}
	return out
}
