package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/coach/pkg/domain"
)

// LoggingHooks writes one structured line per lifecycle event.
// Fallbacks are logged at Warn so authoring gaps in the table stand out.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOpen: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_open", "session_id", e.SessionID, "state", e.StateID)
		},
		OnClose: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_close", "session_id", e.SessionID, "state", e.StateID, "turns", e.Turns)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "transition",
				"session_id", e.SessionID,
				"from", e.FromState,
				"option", e.OptionText,
				"to", e.Resolved,
			)
		},
		OnFallback: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.WarnContext(ctx, "fallback",
				"session_id", e.SessionID,
				"from", e.FromState,
				"requested", e.Requested,
			)
		},
	}
}
