package domain

import (
	"fmt"
	"strings"
)

// OptionRef identifies a displayed option. Surfaces fill whichever field they
// have: the 1-based position, the label, or the target state.
type OptionRef struct {
	Index     int    `json:"index,omitempty"`
	Text      string `json:"text,omitempty"`
	NextState string `json:"next_state,omitempty"`
}

// RefFromOption builds a reference that matches opt exactly.
func RefFromOption(opt Option) OptionRef {
	return OptionRef{Text: opt.Text, NextState: opt.NextState}
}

// IsZero reports whether the reference carries no information.
func (r OptionRef) IsZero() bool {
	return r.Index == 0 && r.Text == "" && r.NextState == ""
}

// Match finds the option the reference points to.
// Index wins over Text, Text over NextState. Text is matched exactly first,
// then case-insensitively.
func (r OptionRef) Match(opts []Option) (Option, bool) {
	if r.Index != 0 {
		if r.Index < 1 || r.Index > len(opts) {
			return Option{}, false
		}
		return opts[r.Index-1], true
	}

	if r.Text != "" {
		for _, opt := range opts {
			if opt.Text == r.Text && (r.NextState == "" || opt.NextState == r.NextState) {
				return opt, true
			}
		}
		clean := strings.TrimSpace(r.Text)
		for _, opt := range opts {
			if strings.EqualFold(opt.Text, clean) && (r.NextState == "" || opt.NextState == r.NextState) {
				return opt, true
			}
		}
		return Option{}, false
	}

	if r.NextState != "" {
		for _, opt := range opts {
			if opt.NextState == r.NextState {
				return opt, true
			}
		}
	}
	return Option{}, false
}

func (r OptionRef) String() string {
	switch {
	case r.Index != 0:
		return fmt.Sprintf("#%d", r.Index)
	case r.Text != "":
		return fmt.Sprintf("%q", r.Text)
	case r.NextState != "":
		return "->" + r.NextState
	default:
		return "<empty>"
	}
}
