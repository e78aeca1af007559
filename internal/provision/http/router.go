package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldgate/provision/internal/provision/service"
	"github.com/fieldgate/provision/internal/provision/store"
	"github.com/fieldgate/provision/pkg/httpx"
	"github.com/fieldgate/provision/pkg/jwtx"
	"github.com/fieldgate/provision/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	tokens       *jwtx.HS256
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	// LinkTemplate is the configured base URL for acceptance links.
	LinkTemplate string

	InviteService       *service.InviteService
	OrganisationService *service.OrganisationService
}

func NewRouter(
	tokens *jwtx.HS256,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		tokens:       tokens,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerInvitations()
	r.registerRegistrations()
	r.registerOrganisations()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerInvitations() {
	issueHandler := &InviteIssueHandler{
		InviteService: r.InviteService,
		LinkTemplate:  r.LinkTemplate,
	}
	resendHandler := &InviteResendHandler{
		InviteService: r.InviteService,
		LinkTemplate:  r.LinkTemplate,
	}
	verifyHandler := &InviteVerifyHandler{InviteService: r.InviteService}

	// POST /invitations - moderate rate limit by user (staff operation)
	r.Mux.Handle("POST /v1/invitations",
		httpx.Chain(issueHandler,
			httpx.AuthnMiddleware(r.tokens),
			httpx.RequireAnyScope("provision:write"),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)

	// POST /invitations/resend - same protection as issuance
	r.Mux.Handle("POST /v1/invitations/resend",
		httpx.Chain(resendHandler,
			httpx.AuthnMiddleware(r.tokens),
			httpx.RequireAnyScope("provision:write"),
			httpx.RateLimitBySubject(httpx.ModerateLimit),
		),
	)

	// GET /invitations/verify - public acceptance-link check, strict by IP
	// to slow token guessing
	r.Mux.Handle("GET /v1/invitations/verify",
		httpx.Chain(verifyHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerRegistrations() {
	h := &RegistrationCompleteHandler{InviteService: r.InviteService}

	// POST /registrations/complete - public signup endpoint, strict by IP
	r.Mux.Handle("POST /v1/registrations/complete",
		httpx.Chain(h,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerOrganisations() {
	h := &OrganisationsHandler{OrganisationService: r.OrganisationService}

	// POST /v1/organisations - create organisation (requires provision:admin)
	securedCreate := httpx.Chain(http.HandlerFunc(h.HandleCreate),
		httpx.AuthnMiddleware(r.tokens),
		httpx.RequireAnyScope("provision:admin"),
		httpx.RateLimitBySubject(httpx.ModerateLimit),
	)

	// GET /v1/organisations - list organisations (staff read)
	securedList := httpx.Chain(http.HandlerFunc(h.HandleList),
		httpx.AuthnMiddleware(r.tokens),
		httpx.RequireAnyScope("provision:admin", "provision:write"),
		httpx.RateLimitBySubject(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/organisations", securedCreate)
	r.Mux.Handle("GET /v1/organisations", securedList)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
