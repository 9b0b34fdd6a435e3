// Package session owns the persisted ticket and the authenticated flag.
// No other package reads or writes those entries.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/nbshell/internal/localstore"
)

// Store keys, relative to the store prefix.
const (
	KeyTicket        = "ticket"
	KeyAuthenticated = "authenticated"
)

// TicketSource issues tickets. *upstream.Client satisfies it.
type TicketSource interface {
	Ticket(ctx context.Context) (string, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// Gate is the single accessor for session state.
//
// Every failure talking to the server is fail-closed: the stored ticket and
// flag are cleared and the call reports false. Only Login reports the
// cause of a failure.
type Gate struct {
	store   localstore.Store
	src     TicketSource
	logger  *slog.Logger
	timeout time.Duration
	hook    func(authenticated bool)

	checks singleflight.Group
	mu     sync.Mutex
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithTimeout bounds every server call made by the gate.
func WithTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		g.timeout = d
	}
}

// WithChangeHook registers fn to be called after every state write with the
// resulting authenticated flag.
func WithChangeHook(fn func(authenticated bool)) GateOption {
	return func(g *Gate) {
		g.hook = fn
	}
}

// NewGate creates a Gate persisting to store and asking src for tickets.
func NewGate(store localstore.Store, src TicketSource, logger *slog.Logger, opts ...GateOption) *Gate {
	g := &Gate{store: store, src: src, logger: logger}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Bootstrap runs the startup ticket check. It must complete before the
// HTTP surface is served; it always returns, bounded by the gate timeout.
func (g *Gate) Bootstrap(ctx context.Context) bool {
	start := time.Now()
	ok := g.CheckServerTicket(ctx)
	g.logger.Info("session bootstrap finished",
		slog.Bool("authenticated", ok),
		slog.Duration("took", time.Since(start)))
	return ok
}

// CheckServerTicket asks the server for the current ticket and records the
// outcome. Concurrent callers share one request, which is bounded by the
// gate timeout only: a caller giving up does not decide the outcome for the
// others.
func (g *Gate) CheckServerTicket(ctx context.Context) bool {
	v, _, _ := g.checks.Do("ticket", func() (any, error) {
		ctx, cancel := g.bound(context.WithoutCancel(ctx))
		defer cancel()

		ticket, err := g.src.Ticket(ctx)
		if err != nil {
			g.logger.Info("ticket check failed", slog.String("error", err.Error()))
			g.clear()
			return false, nil
		}
		return g.setTicket(ticket), nil
	})
	return v.(bool)
}

// AuthenticateWithCredentials logs in with username and password.
func (g *Gate) AuthenticateWithCredentials(ctx context.Context, username, password string) bool {
	return g.Login(ctx, username, password) == nil
}

// Login is AuthenticateWithCredentials reporting why it failed: the
// source's error (rejected credentials wrap apperr.ErrUnauthenticated) or
// a persistence failure. State handling is the same.
func (g *Gate) Login(ctx context.Context, username, password string) error {
	ctx, cancel := g.bound(ctx)
	defer cancel()

	ticket, err := g.src.Login(ctx, username, password)
	if err != nil {
		g.logger.Info("login failed", slog.String("user", username), slog.String("error", err.Error()))
		g.clear()
		return fmt.Errorf("session: login: %w", err)
	}
	if !g.setTicket(ticket) {
		return fmt.Errorf("session: login: could not persist ticket")
	}
	return nil
}

// Logout clears the stored session. It never calls the server.
func (g *Gate) Logout() {
	g.clear()
}

// IsAuthenticated reads the persisted flag.
func (g *Gate) IsAuthenticated() bool {
	v, ok, err := g.store.Get(KeyAuthenticated)
	if err != nil {
		g.logger.Warn("read authenticated flag failed", slog.String("error", err.Error()))
		return false
	}
	return ok && v == "true"
}

// GetTicket reads the persisted ticket.
func (g *Gate) GetTicket() (string, bool) {
	v, ok, err := g.store.Get(KeyTicket)
	if err != nil {
		g.logger.Warn("read ticket failed", slog.String("error", err.Error()))
		return "", false
	}
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (g *Gate) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gate) setTicket(ticket string) bool {
	g.mu.Lock()
	err := g.store.Set(KeyTicket, ticket)
	if err == nil {
		err = g.store.Set(KeyAuthenticated, "true")
	}
	if err != nil {
		g.logger.Error("persist ticket failed", slog.String("error", err.Error()))
		g.removeLocked()
		g.mu.Unlock()
		g.notify(false)
		return false
	}
	g.mu.Unlock()
	g.notify(true)
	return true
}

func (g *Gate) clear() {
	g.mu.Lock()
	g.removeLocked()
	g.mu.Unlock()
	g.notify(false)
}

func (g *Gate) removeLocked() {
	for _, k := range []string{KeyAuthenticated, KeyTicket} {
		if err := g.store.Remove(k); err != nil {
			g.logger.Error("clear session entry failed", slog.String("key", k), slog.String("error", err.Error()))
		}
	}
}

func (g *Gate) notify(authenticated bool) {
	if g.hook != nil {
		g.hook(authenticated)
	}
}
