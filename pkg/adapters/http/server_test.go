package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/coach"
	coachhttp "github.com/aretw0/coach/pkg/adapters/http"
	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/observability"
	"github.com/aretw0/coach/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server *httptest.Server
	store  *memory.Store
	mgr    *session.Manager
}

func newFixture(t *testing.T, opts ...coachhttp.Option) *fixture {
	t.Helper()
	eng, err := coach.New("")
	require.NoError(t, err)

	store := memory.NewStore()
	mgr := session.NewManager(eng, store)
	h, err := coachhttp.NewHandler(mgr, eng.Table(), opts...)
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &fixture{server: srv, store: store, mgr: mgr}
}

func (f *fixture) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func decodeSession(t *testing.T, data []byte) coachhttp.SessionResponse {
	t.Helper()
	var s coachhttp.SessionResponse
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/sessions", coachhttp.OpenRequest{ID: "web-1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	opened := decodeSession(t, body)
	assert.Equal(t, "web-1", opened.ID)
	assert.Equal(t, "greeting", opened.CurrentState)
	assert.Len(t, opened.Transcript, 1)
	assert.Len(t, opened.Options, 7)

	resp, body = f.do(t, http.MethodPost, "/sessions/web-1/select", domain.OptionRef{Index: 1})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	selected := decodeSession(t, body)
	assert.Equal(t, "motivation", selected.CurrentState)
	require.Len(t, selected.Transcript, 3)
	assert.Equal(t, domain.SpeakerUser, selected.Transcript[1].Speaker)
	assert.Equal(t, "How do I stay motivated?", selected.Transcript[1].Message)

	resp, body = f.do(t, http.MethodPost, "/sessions/web-1/select", domain.OptionRef{Text: "back to main menu"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "greeting", decodeSession(t, body).CurrentState)

	resp, body = f.do(t, http.MethodGet, "/sessions/web-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeSession(t, body).Transcript, 5)

	resp, body = f.do(t, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"sessions":["web-1"]}`, string(body))

	resp, body = f.do(t, http.MethodDelete, "/sessions/web-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	closed := decodeSession(t, body)
	assert.Equal(t, domain.StatusClosed, closed.Status)
	assert.Empty(t, closed.Transcript)

	resp, _ = f.do(t, http.MethodGet, "/sessions/web-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOpenSession_GeneratesID(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.NotEmpty(t, decodeSession(t, body).ID)
}

func TestDanglingTargetFallsBack(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/sessions", coachhttp.OpenRequest{ID: "s"})
	f.do(t, http.MethodPost, "/sessions/s/select", domain.OptionRef{NextState: "stress"})

	resp, body := f.do(t, http.MethodPost, "/sessions/s/select", domain.OptionRef{NextState: "breathing-exercise"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	s := decodeSession(t, body)
	assert.Equal(t, "default", s.CurrentState)
	assert.Equal(t, "Sorry, I am not able to answer that question.", s.Transcript[len(s.Transcript)-1].Message)
	require.Len(t, s.Options, 1)
	assert.Equal(t, "greeting", s.Options[0].NextState)
}

func TestErrorStatuses(t *testing.T) {
	f := newFixture(t, coachhttp.WithMaxInputSize(32))
	f.do(t, http.MethodPost, "/sessions", coachhttp.OpenRequest{ID: "s"})

	closed := domain.NewSession("closed", domain.Node{ID: "greeting", Message: "Hi"})
	closed.Status = domain.StatusClosed
	closed.Transcript = nil
	require.NoError(t, f.store.Save(context.Background(), "closed", closed))

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		raw    string
		status int
	}{
		{"Unknown Session", http.MethodPost, "/sessions/missing/select", domain.OptionRef{Index: 1}, "", http.StatusNotFound},
		{"Unknown Option", http.MethodPost, "/sessions/s/select", domain.OptionRef{Index: 99}, "", http.StatusBadRequest},
		{"Empty Ref", http.MethodPost, "/sessions/s/select", domain.OptionRef{}, "", http.StatusBadRequest},
		{"Bad Body", http.MethodPost, "/sessions/s/select", nil, "{broken", http.StatusBadRequest},
		{"Oversized Text", http.MethodPost, "/sessions/s/select", domain.OptionRef{Text: strings.Repeat("a", 64)}, "", http.StatusBadRequest},
		{"Closed Session", http.MethodPost, "/sessions/closed/select", domain.OptionRef{Index: 1}, "", http.StatusConflict},
		{"Close Unknown", http.MethodDelete, "/sessions/missing", nil, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			var body []byte
			if tt.raw != "" {
				r, err := http.Post(f.server.URL+tt.path, "application/json", strings.NewReader(tt.raw))
				require.NoError(t, err)
				defer r.Body.Close()
				resp = r
				var buf bytes.Buffer
				buf.ReadFrom(r.Body)
				body = buf.Bytes()
			} else {
				resp, body = f.do(t, tt.method, tt.path, tt.body)
			}
			assert.Equal(t, tt.status, resp.StatusCode, string(body))

			var e map[string]string
			require.NoError(t, json.Unmarshal(body, &e))
			assert.NotEmpty(t, e["error"])
		})
	}
}

func TestSubscribeEvents(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/sessions", coachhttp.OpenRequest{ID: "sse-1"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.server.URL+"/sessions/sse-1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readData := func() string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
			}
		}
	}

	assert.Equal(t, "connected", readData())

	resp2, _ := f.do(t, http.MethodPost, "/sessions/sse-1/select", domain.OptionRef{NextState: "goals"})
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	var diff domain.SessionDiff
	require.NoError(t, json.Unmarshal([]byte(readData()), &diff))
	assert.Equal(t, "sse-1", diff.SessionID)
	require.NotNil(t, diff.CurrentState)
	assert.Equal(t, "goals", *diff.CurrentState)
	assert.False(t, diff.Reset)
	assert.Len(t, diff.Appended, 2)
}

func TestSubscribeEvents_UnknownSession(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodGet, "/sessions/missing/events", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTableEndpoints(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/table", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var tbl coachhttp.TableResponse
	require.NoError(t, json.Unmarshal(body, &tbl))
	assert.Equal(t, "greeting", tbl.Greeting)
	assert.Equal(t, "default", tbl.Fallback)
	assert.Len(t, tbl.Nodes, 14)

	resp, body = f.do(t, http.MethodGet, "/table/lint", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report struct {
		Dangling []struct {
			Target string `json:"target"`
		} `json:"dangling"`
	}
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Len(t, report.Dangling, 4)

	resp, body = f.do(t, http.MethodGet, "/table/graph", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "graph TD"), string(body))
}

func TestSessionGraph(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/sessions", coachhttp.OpenRequest{ID: "g"})
	f.do(t, http.MethodPost, "/sessions/g/select", domain.OptionRef{NextState: "calendar"})

	resp, body := f.do(t, http.MethodGet, "/sessions/g/graph", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "class calendar current")
}

func TestInfoHealthSpec(t *testing.T) {
	f := newFixture(t, coachhttp.WithTableName("builtin"))

	resp, body := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = f.do(t, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info map[string]string
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, coach.Version, info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.Equal(t, "builtin", info["table"])

	resp, body = f.do(t, http.MethodGet, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "openapi: 3.0.3")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "metrics are only mounted when configured")

	m := observability.NewMetrics()
	f = newFixture(t, coachhttp.WithMetrics(m.Handler()))
	resp, _ = f.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoadSpec(t *testing.T) {
	doc, err := coachhttp.LoadSpec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Coach API", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Find("/sessions/{id}/select"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, coachhttp.StatusFor(domain.ErrSessionNotFound))
	assert.Equal(t, http.StatusConflict, coachhttp.StatusFor(domain.ErrSessionClosed))
	assert.Equal(t, http.StatusBadRequest, coachhttp.StatusFor(domain.ErrUnknownOption))
	assert.Equal(t, http.StatusInternalServerError, coachhttp.StatusFor(context.DeadlineExceeded))
}
