package policy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single policy fetch. A slow policy service must
// not hold the request pipeline beyond this.
const DefaultTimeout = 1500 * time.Millisecond

// Resolver reads enforcement policy over HTTP. Every failure mode (timeout,
// transport error, non-2xx, bad body) resolves to a nil policy: the gateway
// fails open on policy unavailability, trading strict enforcement for
// platform availability. Authentication never depends on this service.
type Resolver struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

func NewResolver(baseURL string, timeout time.Duration, logger *zap.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		baseURL: baseURL,
		client:  &http.Client{},
		timeout: timeout,
		logger:  logger,
	}
}

// Resolve fetches the tenant's general policy. The caller's cookie header
// scopes the lookup to the right tenant; the request id correlates logs
// across services. Returns nil when no policy could be obtained.
func (r *Resolver) Resolve(ctx context.Context, cookie, requestID string) *EnforcementPolicy {
	return r.fetch(ctx, cookie, requestID, "")
}

// ResolveFeature fetches a policy scoped to one feature key, populating
// FeatureEnabled. Independently subject to the same timeout and fail-open
// behavior as Resolve.
func (r *Resolver) ResolveFeature(ctx context.Context, cookie, requestID, featureKey string) *EnforcementPolicy {
	return r.fetch(ctx, cookie, requestID, featureKey)
}

type envelope struct {
	Data *EnforcementPolicy `json:"data"`
}

func (r *Resolver) fetch(ctx context.Context, cookie, requestID, featureKey string) *EnforcementPolicy {
	// Derived from the request context so a client disconnect cancels the
	// in-flight call, not just the wait on it.
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	endpoint := r.baseURL + "/enforcement"
	if featureKey != "" {
		endpoint += "?featureKey=" + url.QueryEscape(featureKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		r.logger.Warn("policy request build failed", zap.String("request_id", requestID), zap.Error(err))
		return nil
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	req.Header.Set("X-Request-Id", requestID)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("policy fetch failed, proceeding without policy",
			zap.String("request_id", requestID),
			zap.String("feature_key", featureKey),
			zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.Warn("policy service returned non-2xx, proceeding without policy",
			zap.String("request_id", requestID),
			zap.Int("status", resp.StatusCode))
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		r.logger.Warn("policy response decode failed, proceeding without policy",
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil
	}
	if env.Data == nil {
		r.logger.Warn("policy response missing data envelope",
			zap.String("request_id", requestID))
		return nil
	}
	return env.Data
}
