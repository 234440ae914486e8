package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teilomillet/medtriage/config"
	"github.com/teilomillet/medtriage/server/metrics"
	"github.com/teilomillet/medtriage/server/middleware"
	"github.com/teilomillet/medtriage/server/mocks"
	"github.com/teilomillet/medtriage/server/processing"
	"github.com/teilomillet/medtriage/server/provider"
	"github.com/teilomillet/medtriage/server/routing"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func testDeps(t *testing.T, chat *mocks.MockChat) routing.Dependencies {
	t.Helper()
	triager, err := processing.NewTriager(chat)
	require.NoError(t, err)
	m := metrics.NewMetrics()
	places := mocks.NewMockPlaces(func(ctx context.Context, q provider.NearbyQuery) ([]provider.Place, error) {
		return []provider.Place{{Name: "City Hospital", Vicinity: "2 Elm St"}}, nil
	})
	return routing.Dependencies{
		Triager:     triager,
		Locator:     processing.NewHospitalLocator(places),
		Metrics:     m,
		RateLimiter: middleware.NewRateLimiter(600, 100, m),
		Queue:       middleware.NewQueueMiddleware(middleware.QueueConfig{MaxSize: 10, Metrics: m}),
	}
}

// startServer serves cfg on a loopback listener and returns its base URL
// and a function stopping it and returning Serve's result.
func startServer(t *testing.T, cfg *config.Config, deps routing.Dependencies) (string, func() error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	baseURL := "http://" + ln.Addr().String()
	if cfg.Page.TriageURL == "" {
		cfg.Page.TriageURL = baseURL + "/triage"
	}

	srv, err := New(cfg, deps, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	stop := func() error {
		cancel()
		select {
		case err := <-errCh:
			return err
		case <-time.After(5 * time.Second):
			return fmt.Errorf("server did not stop")
		}
	}
	return baseURL, stop
}

func TestServerServesConfiguredRoutes(t *testing.T) {
	chat := mocks.NewMockChat(func(ctx context.Context, m []provider.Message) (string, error) {
		return "- Priority: 4\n- Reason: monitor", nil
	})
	baseURL, stop := startServer(t, config.DefaultConfig(), testDeps(t, chat))

	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, err = http.Post(baseURL+"/triage", "application/json", strings.NewReader(`{"symptoms":"rash","age":"30"}`))
	require.NoError(t, err)
	var triage processing.TriageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&triage))
	resp.Body.Close()
	assert.Equal(t, "- Priority: 4\n- Reason: monitor", triage.TriageResult)

	resp, err = http.Get(baseURL + "/nearest_hospitals?latitude=10&longitude=20")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"hospitals":[{"name":"City Hospital","address":"2 Elm St","latitude":null,"longitude":null}]}`, string(body))

	assert.NoError(t, stop())
}

func TestServerPageLoopback(t *testing.T) {
	chat := mocks.NewMockChat(func(ctx context.Context, m []provider.Message) (string, error) {
		return "Priority 2: see a doctor today", nil
	})
	baseURL, stop := startServer(t, config.DefaultConfig(), testDeps(t, chat))
	defer stop()

	resp, err := http.PostForm(baseURL+"/", url.Values{
		"symptoms": {"shortness of breath"},
		"age":      {"70"},
	})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Priority 2: see a doctor today")
	require.Equal(t, 1, chat.Calls())
	assert.Contains(t, chat.LastMessages()[0].Content, "shortness of breath")
}

func TestServerGracefulShutdown(t *testing.T) {
	started := make(chan struct{})
	chat := mocks.NewMockChat(func(ctx context.Context, m []provider.Message) (string, error) {
		close(started)
		time.Sleep(200 * time.Millisecond)
		return "done", nil
	})
	baseURL, stop := startServer(t, config.DefaultConfig(), testDeps(t, chat))

	type result struct {
		status int
		err    error
	}
	resCh := make(chan result, 1)
	go func() {
		resp, err := http.Post(baseURL+"/triage", "application/json", strings.NewReader(`{"symptoms":"a","age":"1"}`))
		if err != nil {
			resCh <- result{err: err}
			return
		}
		resp.Body.Close()
		resCh <- result{status: resp.StatusCode}
	}()

	<-started
	assert.NoError(t, stop())

	res := <-resCh
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.status, "in-flight request completes during shutdown")
}

func TestServerStartListenError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := config.DefaultConfig()
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	srv := NewServer(cfg.Server, http.NotFoundHandler(), zaptest.NewLogger(t))
	err = srv.Start(context.Background())
	assert.Error(t, err)
}

func TestNewRejectsBadRoutes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Routes = append(cfg.Routes, config.RouteConfig{Path: "/v1/completions", Handler: "completion"})

	_, err := New(cfg, testDeps(t, mocks.NewMockChat(nil)), zap.NewNop())
	assert.Error(t, err)
}
