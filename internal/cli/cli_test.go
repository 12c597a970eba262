package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/coach/internal/config"
	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/adapters/redis"
	"github.com/aretw0/coach/pkg/domain"
	"github.com/aretw0/coach/pkg/observability"
	"github.com/aretw0/coach/pkg/persistence/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine_WithMetrics(t *testing.T) {
	m := observability.NewMetrics()
	eng, err := NewEngine(EngineOptions{Metrics: m, Debug: true, Logger: logging.NewNop()})
	require.NoError(t, err)
	assert.Equal(t, "builtin", eng.Name)

	s := eng.Open(context.Background(), "m")
	_, err = eng.Select(context.Background(), s, domain.OptionRef{Index: 1})
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsOpened))
}

func TestNewEngine_BadTable(t *testing.T) {
	_, err := NewEngine(EngineOptions{Table: "does-not-exist.yaml"})
	assert.Error(t, err)
}

func TestNewBackend_Memory(t *testing.T) {
	b, err := NewBackend(context.Background(), &config.Config{Store: config.StoreMemory}, logging.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, b.Store)
	assert.Nil(t, b.Locker)
	assert.NoError(t, b.Close())
}

func TestNewBackend_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{
		Store:       config.StoreRedis,
		RedisURL:    fmt.Sprintf("redis://%s/0", mr.Addr()),
		RedisPrefix: "test:",
		SessionTTL:  time.Minute,
	}
	b, err := NewBackend(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &redis.Store{}, b.Store)
	require.NotNil(t, b.Locker)

	require.NoError(t, b.Store.Save(context.Background(), "r1", domain.NewSession("r1", domain.Node{ID: "greeting", Message: "Hi"})))
	assert.True(t, mr.Exists("test:s:r1"))
}

func TestNewBackend_Encrypted(t *testing.T) {
	mr := miniredis.RunT(t)
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, middleware.KeySize))

	cfg := &config.Config{
		Store:         config.StoreRedis,
		RedisURL:      fmt.Sprintf("redis://%s/0", mr.Addr()),
		RedisPrefix:   "enc:",
		EncryptionKey: key,
	}
	b, err := NewBackend(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, b.Store.Save(ctx, "e1", domain.NewSession("e1", domain.Node{ID: "greeting", Message: "Top secret greeting"})))

	raw, err := mr.Get("enc:s:e1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "Top secret greeting")

	loaded, err := b.Store.Load(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "Top secret greeting", loaded.Transcript[0].Message)
}

func TestNewBackend_BadEncryptionKey(t *testing.T) {
	cfg := &config.Config{Store: config.StoreMemory, EncryptionKey: "c2hvcnQ="}
	_, err := NewBackend(context.Background(), cfg, logging.NewNop())
	assert.ErrorIs(t, err, middleware.ErrInvalidKey)
}

func TestNewBackend_RedisUnreachable(t *testing.T) {
	cfg := &config.Config{Store: config.StoreRedis, RedisURL: "redis://127.0.0.1:1/0"}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewBackend(ctx, cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestRunChat_Plain(t *testing.T) {
	eng, err := NewEngine(EngineOptions{})
	require.NoError(t, err)

	out := &bytes.Buffer{}
	err = RunChat(context.Background(), ChatOptions{
		Engine: eng,
		In:     strings.NewReader("7\nquit\n"),
		Out:    out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "  7. How do I use the calendar?")
	assert.NotContains(t, out.String(), "___", "banner is only printed in rich mode")
}

func TestRunChat_Cancelled(t *testing.T) {
	eng, err := NewEngine(EngineOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pr, pw := io.Pipe()
	defer pw.Close()
	err = RunChat(ctx, ChatOptions{Engine: eng, In: pr, Out: io.Discard})
	assert.NoError(t, err, "cancellation is a clean exit")
}

func TestServe_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	addrCh := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", handler, logging.NewNop(), func(a net.Addr) { addrCh <- a })
	}()

	addr := <-addrCh
	resp, err := http.Get("http://" + addr.String())
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
