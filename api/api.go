// Package api exposes the voting box over HTTP. Caller identity is
// recovered from an Ethereum personal-message signature carried in each
// mutating request; the ledger then enforces authority and phase gates.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.vocdoni.io/dvote/log"

	"github.com/voteledger/ballotbox/ledger"
)

// APIConfig type represents the configuration for the API HTTP server.
type APIConfig struct {
	Host   string
	Port   int
	Ledger *ledger.Ledger
}

// API type represents the API HTTP server over a voting box ledger.
type API struct {
	router *chi.Mux
	ledger *ledger.Ledger
	srv    *http.Server
	addr   net.Addr
}

// New creates a new API instance with the given configuration, binds the
// listener and starts serving. Binding failures are reported synchronously.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Ledger == nil {
		return nil, fmt.Errorf("missing ledger instance")
	}
	a := &API{
		ledger: conf.Ledger,
	}
	a.initRouter()
	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", conf.Host, conf.Port))
	if err != nil {
		return nil, fmt.Errorf("cannot bind API listener: %w", err)
	}
	a.addr = ln.Addr()
	a.srv = &http.Server{Handler: a.router}
	go func() {
		log.Infow("starting API server", "addr", a.addr.String())
		if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("API server failed: %v", err)
		}
	}()
	return a, nil
}

// Addr returns the address the server listens on. It is the way to learn
// the actual port when the configuration asked for port 0.
func (a *API) Addr() string {
	if a.addr == nil {
		return ""
	}
	return a.addr.String()
}

// Shutdown gracefully stops the HTTP server, waiting for in-flight
// requests up to the context deadline.
func (a *API) Shutdown(ctx context.Context) error {
	if a.srv == nil {
		return nil
	}
	return a.srv.Shutdown(ctx)
}

// NewRouter creates an API instance without binding a listener. It is used
// by tests that mount the router on an httptest server.
func NewRouter(l *ledger.Ledger) *API {
	a := &API{ledger: l}
	a.initRouter()
	return a
}

// Router returns the chi router, mainly for testing purposes.
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the API handlers.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, _ *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", SecretEndpoint, "method", "POST")
	a.router.Post(SecretEndpoint, a.setSecret)
	log.Infow("register handler", "endpoint", VotersEndpoint, "method", "POST")
	a.router.Post(VotersEndpoint, a.registerVoter)
	log.Infow("register handler", "endpoint", VoterCountEndpoint, "method", "GET")
	a.router.Get(VoterCountEndpoint, a.voterCount)
	log.Infow("register handler", "endpoint", VoterEndpoint, "method", "GET")
	a.router.Get(VoterEndpoint, a.voter)
	log.Infow("register handler", "endpoint", VotesEndpoint, "method", "POST")
	a.router.Post(VotesEndpoint, a.castVote)
	log.Infow("register handler", "endpoint", VoteRecastEndpoint, "method", "POST")
	a.router.Post(VoteRecastEndpoint, a.recastVote)
	log.Infow("register handler", "endpoint", VoteEndpoint, "method", "GET")
	a.router.Get(VoteEndpoint, a.vote)
	log.Infow("register handler", "endpoint", ValidationEndpoint, "method", "POST")
	a.router.Post(ValidationEndpoint, a.runValidation)
	log.Infow("register handler", "endpoint", RevoteEndpoint, "method", "POST")
	a.router.Post(RevoteEndpoint, a.initiateRevote)
	log.Infow("register handler", "endpoint", PhaseEndpoint, "method", "GET")
	a.router.Get(PhaseEndpoint, a.phase)
	log.Infow("register handler", "endpoint", EventsEndpoint, "method", "GET")
	a.router.Get(EventsEndpoint, a.events)
	log.Infow("register handler", "endpoint", RootEndpoint, "method", "GET")
	a.router.Get(RootEndpoint, a.auditRoot)
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	a.registerHandlers()
}
