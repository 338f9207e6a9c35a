// Package testserver runs the full stack behind an httptest server.
package testserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/endershare/internal/domain/share"
	"github.com/rpggio/endershare/internal/host"
	"github.com/rpggio/endershare/internal/loop"
	"github.com/rpggio/endershare/internal/mcp"
	"github.com/rpggio/endershare/internal/sqlite"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	Store   *sqlite.Store
	Loop    *loop.Loop
	Manager *share.Manager
	Host    *host.Memory
	Token   string

	stopLoop context.CancelFunc
	loopDone chan struct{}
}

// Options tunes the server. Zero values pick test-friendly defaults.
type Options struct {
	InvitationTimeout time.Duration
	QuietPeriod       time.Duration
	// DB reuses an existing database, e.g. to simulate a restart.
	DB *sqlite.DB
}

func New(t *testing.T, token string, opts Options) *TestServer {
	t.Helper()

	db := opts.DB
	if db == nil {
		var err error
		db, err = sqlite.New(":memory:")
		require.NoError(t, err)
		require.NoError(t, db.RunMigrations())
		t.Cleanup(func() { _ = db.Close() })
	}
	if opts.InvitationTimeout == 0 {
		opts.InvitationTimeout = time.Minute
	}
	if opts.QuietPeriod == 0 {
		opts.QuietPeriod = 20 * time.Millisecond
	}

	store := sqlite.NewStore(db)
	l := loop.New(64)
	players := host.NewMemory()
	manager := share.NewManager(store, store, players, l, share.Config{
		InvitationTimeout: opts.InvitationTimeout,
		QuietPeriod:       opts.QuietPeriod,
	}, nil)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		l.Run(loopCtx)
	}()

	var startErr error
	require.NoError(t, l.Do(context.Background(), func() { startErr = manager.Start(context.Background()) }))
	require.NoError(t, startErr)

	mcpServer := mcp.NewServer(mcp.Config{
		Manager:       manager,
		Host:          players,
		Runner:        l,
		Resolver:      mcp.StaticToken{Token: token},
		AuthEnabled:   true,
		TransportMode: "http",
	})
	handler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		nil,
	)
	mux := http.NewServeMux()
	mux.Handle("/mcp", handler)

	ts := &TestServer{
		Server:   httptest.NewServer(mux),
		DB:       db,
		Store:    store,
		Loop:     l,
		Manager:  manager,
		Host:     players,
		Token:    token,
		stopLoop: stopLoop,
		loopDone: loopDone,
	}
	t.Cleanup(func() {
		ts.Server.Close()
		ts.Shutdown(t)
	})

	return ts
}

// Shutdown stops the loop and persists state. It is safe to call twice.
func (ts *TestServer) Shutdown(t *testing.T) {
	t.Helper()
	select {
	case <-ts.loopDone:
		return
	default:
	}
	ts.stopLoop()
	<-ts.loopDone
	require.NoError(t, ts.Manager.Stop(context.Background()))
}

// Connect opens an MCP client session using token for auth.
func (ts *TestServer) Connect(t *testing.T, token string) *sdkmcp.ClientSession {
	t.Helper()

	httpClient := &http.Client{Transport: bearerTransport{token: token, base: http.DefaultTransport}}
	transport := &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: httpClient,
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	session, err := client.Connect(ctx, transport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if b.token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return b.base.RoundTrip(req)
}
