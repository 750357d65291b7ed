// Package gateway implements the edge request-interception pipeline: every
// inbound request is identified, rate limited, authenticated, checked
// against tenant policy and role routing, and only then forwarded
// downstream. Each step either falls through, bypasses the rest of the
// chain, or writes a terminal response; the order is fixed and every
// terminal response carries the request id.
package gateway

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/backline-hq/tenantgate/internal/auth"
	"github.com/backline-hq/tenantgate/internal/policy"
	"github.com/backline-hq/tenantgate/internal/ratelimit"
)

// SessionVerifier authenticates a request. Failures here always terminate
// the request: authentication fails closed, with no policy-service
// dependency.
type SessionVerifier interface {
	FromRequest(ctx context.Context, r *http.Request) (*auth.Principal, error)
}

// PolicyClient resolves tenant enforcement policy. A nil result means the
// policy service was unreachable; the pipeline then proceeds as if no
// restrictive policy exists.
type PolicyClient interface {
	Resolve(ctx context.Context, cookie, requestID string) *policy.EnforcementPolicy
	ResolveFeature(ctx context.Context, cookie, requestID, featureKey string) *policy.EnforcementPolicy
}

// RateLimiter checks the sensitive-route rule for one identifier.
type RateLimiter interface {
	Check(ctx context.Context, rule ratelimit.Rule, identifier string) ratelimit.Decision
}

// Gateway is the assembled interception pipeline.
type Gateway struct {
	routes   *Routes
	rule     ratelimit.Rule
	limiter  RateLimiter
	sessions SessionVerifier
	policies PolicyClient
	logger   *zap.Logger
}

func New(routes *Routes, rule ratelimit.Rule, limiter RateLimiter, sessions SessionVerifier, policies PolicyClient, logger *zap.Logger) *Gateway {
	return &Gateway{
		routes:   routes,
		rule:     rule,
		limiter:  limiter,
		sessions: sessions,
		policies: policies,
		logger:   logger,
	}
}

// request is the pipeline's per-request state. Created at entry, discarded
// with the response.
type request struct {
	id        string
	path      string
	method    string
	clientIP  string
	cookie    string
	apiShaped bool
	principal *auth.Principal
	policy    *policy.EnforcementPolicy
}

// action is what a step tells the runner to do next.
type action int

const (
	// next falls through to the following step.
	next action = iota
	// passThrough skips the remaining checks and forwards downstream.
	passThrough
	// terminated means the step wrote a terminal response.
	terminated
)

type step struct {
	name string
	run  func(c *gin.Context, rc *request) action
}

// Middleware returns the pipeline as a single gin middleware. Step order is
// fixed: rate limiting runs before the public bypass because several public
// auth routes are also sensitive ones.
func (g *Gateway) Middleware() gin.HandlerFunc {
	steps := []step{
		{"rate_limit", g.stepRateLimit},
		{"public_bypass", g.stepPublicBypass},
		{"authenticate", g.stepAuthenticate},
		{"resolve_policy", g.stepResolvePolicy},
		{"enforce_policy", g.stepEnforcePolicy},
		{"authorize_route", g.stepAuthorizeRoute},
	}

	return func(c *gin.Context) {
		start := time.Now()
		rc := g.identify(c)

		for _, s := range steps {
			a := s.run(c, rc)
			if a == terminated {
				pipelineDuration.Observe(time.Since(start).Seconds())
				requestsTotal.WithLabelValues(rc.method, "denied").Inc()
				g.logger.Debug("request terminated",
					zap.String("step", s.name),
					zap.String("request_id", rc.id),
					zap.Int("status", c.Writer.Status()))
				return
			}
			if a == passThrough {
				break
			}
		}

		pipelineDuration.Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(rc.method, "pass").Inc()
		c.Next()
	}
}

// identify derives the request id and client address. The id is echoed on
// every response, early exits included, so client-reported errors can be
// correlated with server logs.
func (g *Gateway) identify(c *gin.Context) *request {
	id := c.GetHeader(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(HeaderRequestID, id)

	path := c.Request.URL.Path
	return &request{
		id:        id,
		path:      path,
		method:    c.Request.Method,
		clientIP:  clientIP(c.Request),
		cookie:    c.GetHeader("Cookie"),
		apiShaped: IsAPIShaped(path),
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	return "unknown"
}

func (g *Gateway) stepRateLimit(c *gin.Context, rc *request) action {
	if !g.routes.IsSensitive(rc.path) {
		return next
	}
	d := g.limiter.Check(c.Request.Context(), g.rule, rc.clientIP)
	if d.Allowed {
		return next
	}

	rateLimitedTotal.Inc()
	decisionsTotal.WithLabelValues("rate_limit", CodeRateLimited).Inc()
	g.logger.Info("request rate limited",
		zap.String("request_id", rc.id),
		zap.String("path", rc.path),
		zap.String("client_ip", rc.clientIP),
		zap.Duration("retry_after", d.RetryAfter))
	writeRateLimited(c, d.RetryAfter)
	return terminated
}

func (g *Gateway) stepPublicBypass(c *gin.Context, rc *request) action {
	if g.routes.IsPublic(rc.path) {
		return passThrough
	}
	return next
}

func (g *Gateway) stepAuthenticate(c *gin.Context, rc *request) action {
	p, err := g.sessions.FromRequest(c.Request.Context(), c.Request)
	if err != nil {
		decisionsTotal.WithLabelValues("authenticate", CodeUnauthorized).Inc()
		g.logger.Info("unauthenticated request",
			zap.String("request_id", rc.id),
			zap.String("path", rc.path),
			zap.Error(err))
		if rc.apiShaped {
			writeAPIError(c, http.StatusUnauthorized, CodeUnauthorized, "authentication required")
		} else {
			signInRedirect(c, g.routes.SignInPath, c.Request.URL.RequestURI())
		}
		return terminated
	}
	rc.principal = p
	return next
}

// stepResolvePolicy fetches the tenant policy for everything outside the
// auth flow. Resolution failures are absorbed: the request proceeds with no
// policy rather than being blocked by policy-service downtime.
func (g *Gateway) stepResolvePolicy(c *gin.Context, rc *request) action {
	if g.routes.IsAuthPath(rc.path) {
		return next
	}
	rc.policy = g.policies.Resolve(c.Request.Context(), rc.cookie, rc.id)
	if rc.policy == nil {
		policyFailOpenTotal.Inc()
	}
	return next
}

func (g *Gateway) stepEnforcePolicy(c *gin.Context, rc *request) action {
	p := rc.policy
	if p == nil {
		return next
	}

	// A tenant admin bumping authVersion force-logs-out every session
	// issued under a lower epoch.
	if rc.principal != nil && p.AuthVersion > rc.principal.AuthEpoch {
		decisionsTotal.WithLabelValues("enforce_policy", CodeSessionInvalidated).Inc()
		g.logger.Info("session invalidated by auth epoch bump",
			zap.String("request_id", rc.id),
			zap.Int("policy_version", p.AuthVersion),
			zap.Int("session_epoch", rc.principal.AuthEpoch))
		if rc.apiShaped {
			writeAPIError(c, http.StatusUnauthorized, CodeSessionInvalidated, "session invalidated, sign in again")
		} else {
			signInErrorRedirect(c, g.routes.SignInPath, "session_invalidated")
		}
		return terminated
	}

	if g.routes.BlocksForReadOnly(rc.path, rc.method, p.SystemReadOnly) {
		decisionsTotal.WithLabelValues("enforce_policy", CodeReadOnly).Inc()
		if rc.apiShaped {
			writeAPIError(c, http.StatusServiceUnavailable, CodeReadOnly, "tenant is in read-only mode")
		} else {
			redirect(c, g.routes.AppHomePath+"?system=read-only")
		}
		return terminated
	}

	if p.SubscriptionStatus == policy.SubscriptionLocked && !g.routes.IsBillingExempt(rc.path) {
		decisionsTotal.WithLabelValues("enforce_policy", CodeSubscriptionLocked).Inc()
		if rc.apiShaped {
			writeAPIError(c, http.StatusPaymentRequired, CodeSubscriptionLocked, "subscription is locked")
		} else {
			redirect(c, g.routes.BillingPath+"?billing=locked")
		}
		return terminated
	}

	// Grace never blocks; it only annotates the response so the UI can
	// show a notice.
	if p.SubscriptionStatus == policy.SubscriptionGrace {
		c.Header(HeaderGraceWarning, "true")
		if p.GraceEndsAt != nil {
			c.Header(HeaderGraceEndsAt, p.GraceEndsAt.UTC().Format(time.RFC3339))
		}
	}

	if key, ok := g.routes.FeatureKey(rc.path); ok {
		fp := g.policies.ResolveFeature(c.Request.Context(), rc.cookie, rc.id, key)
		if fp != nil && fp.FeatureEnabled != nil && !*fp.FeatureEnabled {
			decisionsTotal.WithLabelValues("enforce_policy", CodeFeatureDisabled).Inc()
			writeAPIError(c, http.StatusForbidden, CodeFeatureDisabled, "feature is not enabled for this tenant")
			return terminated
		}
	}

	return next
}

func (g *Gateway) stepAuthorizeRoute(c *gin.Context, rc *request) action {
	if rc.principal == nil {
		return next
	}
	role := rc.principal.Role

	denied := (g.routes.IsBackOfficeArea(rc.path) && !role.IsBackOffice()) ||
		(g.routes.IsFieldArea(rc.path) && !role.IsField())
	if !denied {
		return next
	}

	decisionsTotal.WithLabelValues("authorize_route", CodeForbidden).Inc()
	g.logger.Info("role not permitted for route",
		zap.String("request_id", rc.id),
		zap.String("path", rc.path),
		zap.String("role", string(role)))
	if rc.apiShaped {
		writeAPIError(c, http.StatusForbidden, CodeForbidden, "insufficient permissions")
	} else {
		signInErrorRedirect(c, g.routes.SignInPath, "insufficient_permissions")
	}
	return terminated
}
