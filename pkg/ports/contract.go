package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/coach/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractGreeting() domain.Node {
	return domain.Node{
		ID:      domain.DefaultGreetingID,
		Message: "Hello!",
		Options: []domain.Option{{Text: "How do I stay motivated?", NextState: "motivation"}},
	}
}

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID, contractGreeting())
		session.Transcript = append(session.Transcript,
			domain.UserEntry(domain.Option{Text: "How do I stay motivated?", NextState: "motivation"}),
			domain.Entry{Speaker: domain.SpeakerBot, Message: "Here are powerful motivation strategies:", Options: []domain.Option{{Text: "Back to main menu", NextState: "greeting"}}},
		)
		session.CurrentState = "motivation"

		err := store.Save(ctx, sessionID, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.CurrentState, loaded.CurrentState)
		assert.Equal(t, domain.StatusOpen, loaded.Status)
		require.Len(t, loaded.Transcript, 3)
		assert.Equal(t, domain.SpeakerUser, loaded.Transcript[1].Speaker)
		assert.Equal(t, "greeting", loaded.Transcript[2].Options[0].NextState)
	})

	t.Run("Loaded Copy Is Isolated", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID, contractGreeting()))
		require.NoError(t, err)

		first, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		first.Transcript[0].Message = "mutated"

		second, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Hello!", second.Transcript[0].Message)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSession(sessionID, contractGreeting()))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should be a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, contractGreeting()))
		_ = store.Save(ctx, id2, domain.NewSession(id2, contractGreeting()))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
