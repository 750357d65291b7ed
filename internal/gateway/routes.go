package gateway

import (
	"net/http"
	"strings"

	"github.com/backline-hq/tenantgate/internal/config"
)

// Routes is the static route classification the pipeline consults. All
// lists hold path prefixes matched on segment boundaries, so "/api/auth"
// covers "/api/auth/login" but not "/api/authority".
type Routes struct {
	public        []string
	sensitive     []string
	billingExempt []string
	auth          []string
	backOffice    []string
	field         []string
	featureMap    map[string]string

	SignInPath  string
	AppHomePath string
	BillingPath string
}

func NewRoutes(cfg config.RoutesConfig) *Routes {
	return &Routes{
		public:        cfg.Public,
		sensitive:     cfg.Sensitive,
		billingExempt: cfg.BillingExempt,
		auth:          cfg.Auth,
		backOffice:    cfg.BackOffice,
		field:         cfg.Field,
		featureMap:    cfg.FeatureMap,
		SignInPath:    cfg.SignInPath,
		AppHomePath:   cfg.AppHomePath,
		BillingPath:   cfg.BillingPath,
	}
}

func matchPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func matchAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if matchPrefix(path, p) {
			return true
		}
	}
	return false
}

// IsPublic reports whether the path is reachable without authentication.
// The enforcement endpoint itself must be listed here, otherwise resolving
// policy for it would recurse.
func (r *Routes) IsPublic(path string) bool { return matchAny(path, r.public) }

// IsSensitive reports whether the path gets per-IP rate limiting.
func (r *Routes) IsSensitive(path string) bool { return matchAny(path, r.sensitive) }

// IsBillingExempt reports whether the path stays reachable under read-only
// mode and subscription lock, so a locked-out tenant can still pay.
func (r *Routes) IsBillingExempt(path string) bool { return matchAny(path, r.billingExempt) }

// IsAuthPath reports whether the path belongs to the auth flow; policy
// resolution is skipped there to avoid a dependency cycle.
func (r *Routes) IsAuthPath(path string) bool { return matchAny(path, r.auth) }

// IsBackOfficeArea reports whether the path requires a back-office role.
func (r *Routes) IsBackOfficeArea(path string) bool { return matchAny(path, r.backOffice) }

// IsFieldArea reports whether the path requires a field role.
func (r *Routes) IsFieldArea(path string) bool { return matchAny(path, r.field) }

// FeatureKey returns the feature gating the path, if any. When feature_map
// prefixes overlap the longest match wins, so a narrow entry can carve a
// differently-gated area out of a broad one.
func (r *Routes) FeatureKey(path string) (string, bool) {
	var (
		best    string
		bestKey string
		found   bool
	)
	for prefix, key := range r.featureMap {
		if matchPrefix(path, prefix) && (!found || len(prefix) > len(best)) {
			best, bestKey, found = prefix, key, true
		}
	}
	return bestKey, found
}

// IsAPIShaped reports whether errors on this path should be JSON rather
// than redirects.
func IsAPIShaped(path string) bool {
	return matchPrefix(path, "/api")
}

// IsWriteMethod reports whether the method mutates state. The safe set is
// always allowed through read-only mode.
func IsWriteMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}

// BlocksForReadOnly decides whether a tenant-wide write freeze stops this
// request: only writes, and never on billing-exempt paths.
func (r *Routes) BlocksForReadOnly(path, method string, systemReadOnly bool) bool {
	return systemReadOnly && IsWriteMethod(method) && !r.IsBillingExempt(path)
}
