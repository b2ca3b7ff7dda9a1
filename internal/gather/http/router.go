package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/gather/internal/gather/domain"
	"github.com/aussiebroadwan/gather/internal/gather/service"
	"github.com/aussiebroadwan/gather/internal/gather/store"
	"github.com/aussiebroadwan/gather/pkg/httpx"
	"github.com/aussiebroadwan/gather/pkg/jwtx"
	"github.com/aussiebroadwan/gather/pkg/slogx"
)

// DefaultStreamPing is the keep-alive interval on event streams.
const DefaultStreamPing = 25 * time.Second

// Limits are the rate limit profiles applied per route group.
type Limits struct {
	Strict   httpx.RateLimitConfig
	Moderate httpx.RateLimitConfig
	Lenient  httpx.RateLimitConfig
}

// DefaultLimits returns the built-in profiles.
func DefaultLimits() Limits {
	return Limits{
		Strict:   httpx.StrictLimit,
		Moderate: httpx.ModerateLimit,
		Lenient:  httpx.LenientLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	AccountService    *service.AccountService
	EventService      *service.EventService
	RsvpService       *service.RsvpService
	InvitationService *service.InvitationService

	Limits     Limits
	StreamPing time.Duration

	closing     chan struct{}
	closingOnce sync.Once
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Limits:       DefaultLimits(),
		StreamPing:   DefaultStreamPing,
		closing:      make(chan struct{}),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerEvents()
	r.registerInvitations()
	r.registerNotifications()
	r.registerSystem()
}

// CloseStreams ends every open event stream. Call it before shutting the
// server down.
func (r *Router) CloseStreams() {
	r.closingOnce.Do(func() { close(r.closing) })
}

func (r *Router) streamConfig() StreamConfig {
	return StreamConfig{Ping: r.StreamPing, Closing: r.closing}
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// secured wraps h with bearer authentication and a per-account limit.
func (r *Router) secured(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByPrincipal(limit),
	)
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{AccountService: r.AccountService}

	// POST /accounts - strict rate limit by IP (public signup)
	r.Mux.Handle("POST /v1/accounts",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(r.Limits.Strict),
		),
	)
	r.Mux.Handle("GET /v1/me", r.secured(h.HandleMe, r.Limits.Lenient))
}

func (r *Router) registerEvents() {
	h := &EventsHandler{
		EventService: r.EventService,
		RsvpService:  r.RsvpService,
		Stream:       r.streamConfig(),
	}

	r.Mux.Handle("POST /v1/events", r.secured(h.HandleCreate, r.Limits.Moderate))
	r.Mux.Handle("GET /v1/events", r.secured(h.HandleList, r.Limits.Lenient))
	r.Mux.Handle("GET /v1/events/{id}", r.secured(h.HandleGet, r.Limits.Lenient))
	r.Mux.Handle("GET /v1/events/{id}/stream", r.secured(h.HandleStream, r.Limits.Lenient))

	// Attendee writes go through the reconciler - moderate by account
	r.Mux.Handle("POST /v1/events/{id}/attendees", r.secured(h.HandleAddAttendees, r.Limits.Moderate))
	r.Mux.Handle("DELETE /v1/events/{id}/attendees/{identity}", r.secured(h.HandleRemoveAttendee, r.Limits.Moderate))
	r.Mux.Handle("PUT /v1/events/{id}/rsvp", r.secured(h.HandleRsvp, r.Limits.Moderate))
}

func (r *Router) registerInvitations() {
	h := &InvitationsHandler{InvitationService: r.InvitationService}

	r.Mux.Handle("POST /v1/events/{id}/invitations", r.secured(h.HandleInvite, r.Limits.Moderate))
	r.Mux.Handle("POST /v1/events/{id}/links", r.secured(h.HandleMintLink, r.Limits.Moderate))

	// POST /links/redeem - strict rate limit by account (token guessing)
	r.Mux.Handle("POST /v1/links/redeem", r.secured(h.HandleRedeemLink, r.Limits.Strict))
}

func (r *Router) registerNotifications() {
	h := &NotificationsHandler{
		RsvpService: r.RsvpService,
		Stream:      r.streamConfig(),
	}

	r.Mux.Handle("GET /v1/notifications", r.secured(h.HandleList, r.Limits.Lenient))
	r.Mux.Handle("GET /v1/notifications/stream", r.secured(h.HandleStream, r.Limits.Lenient))
	r.Mux.Handle("POST /v1/notifications/{id}/respond", r.secured(h.HandleRespond, r.Limits.Moderate))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
}

// actingIdentity builds the caller's identity from the verified token.
func actingIdentity(r *http.Request) (domain.ActingIdentity, bool) {
	p, ok := httpx.PrincipalFromContext(r.Context())
	if !ok {
		return domain.ActingIdentity{}, false
	}
	return domain.ActingIdentity{AccountID: p.Subject, DisplayName: p.Name, Phone: p.Phone}, true
}
