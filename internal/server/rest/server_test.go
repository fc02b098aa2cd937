package rest

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(jsonRequest(t, http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())

	f.health = errors.New("connection refused")
	rec = f.do(jsonRequest(t, http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func newBareServer(t *testing.T, addr string) *HTTPServer {
	t.Helper()
	secrets, err := auth.NewSecrets(testAccessSecret, testRefreshSecret, time.Minute, time.Hour)
	require.NoError(t, err)
	return NewHTTPServer(Options{
		Address: addr,
		Codec:   auth.NewCodec(secrets),
		Metrics: NewMetrics(prometheus.NewRegistry()),
		Logger:  logging.Nop{},
	})
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := newBareServer(t, "127.0.0.1:0")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := newBareServer(t, "127.0.0.1:99999")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, srv.Run(ctx))
}
