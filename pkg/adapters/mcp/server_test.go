package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/coach"
	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := coach.New("")
	require.NoError(t, err)
	mgr := session.NewManager(eng, memory.NewStore())
	return NewServer(mgr, eng.Table(), WithMaxInputSize(64))
}

func TestSessionTools(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	opened, err := s.handleOpen(ctx, req, OpenArgs{SessionID: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, "agent-1", opened.SessionID)
	assert.Equal(t, "greeting", opened.CurrentState)
	assert.Len(t, opened.Options, 7)
	assert.Equal(t, 1, opened.Turns)

	next, err := s.handleSelect(ctx, req, SelectArgs{SessionID: "agent-1", Text: "Help me build better habits"})
	require.NoError(t, err)
	assert.Equal(t, "habits", next.CurrentState)
	assert.Equal(t, 3, next.Turns)
	assert.True(t, strings.HasPrefix(next.Message, "Building habits that stick:"))

	fallback, err := s.handleSelect(ctx, req, SelectArgs{SessionID: "agent-1", Index: 1})
	require.NoError(t, err)
	assert.Equal(t, "default", fallback.CurrentState)
	assert.True(t, fallback.Fallback)
	assert.Equal(t, "Sorry, I am not able to answer that question.", fallback.Message)

	got, err := s.handleGet(ctx, req, SessionArgs{SessionID: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, fallback, got)

	closed, err := s.handleClose(ctx, req, SessionArgs{SessionID: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusClosed), closed.Status)
	assert.Empty(t, closed.Options)
	assert.Zero(t, closed.Turns)

	_, err = s.handleGet(ctx, req, SessionArgs{SessionID: "agent-1"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSelectOption_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	_, err := s.handleOpen(ctx, req, OpenArgs{SessionID: "s"})
	require.NoError(t, err)

	_, err = s.handleSelect(ctx, req, SelectArgs{Index: 1})
	assert.Error(t, err)

	_, err = s.handleSelect(ctx, req, SelectArgs{SessionID: "s"})
	assert.Error(t, err)

	_, err = s.handleSelect(ctx, req, SelectArgs{SessionID: "s", Index: 12})
	assert.ErrorIs(t, err, domain.ErrUnknownOption)

	_, err = s.handleSelect(ctx, req, SelectArgs{SessionID: "s", Text: strings.Repeat("x", 65)})
	assert.Error(t, err)

	_, err = s.handleSelect(ctx, req, SelectArgs{SessionID: "missing", Index: 1})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestOpenSession_GeneratesID(t *testing.T) {
	s := newTestServer(t)
	opened, err := s.handleOpen(context.Background(), mcp.CallToolRequest{}, OpenArgs{})
	require.NoError(t, err)
	assert.NotEmpty(t, opened.SessionID)
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, s.MCPServer())
}
