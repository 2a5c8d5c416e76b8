package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"incident-dashboard/database"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Scopes grantable to reporter API keys.
const (
	ScopeIncidentSubmit = "incident:submit"
	ScopeReporterRead   = "reporter:read"
)

// Reporter API keys look like secdash_rk_{live|test}_{keyID}_{secret}.
// The prefix pins a key to one environment so test keys can never reach
// production data.
const (
	ReporterKeyPrefixLive = "secdash_rk_live_"
	ReporterKeyPrefixTest = "secdash_rk_test_"
)

// Context keys set on key-authenticated requests.
const (
	ContextReporterID     = "reporter_id"
	ContextReporterKeyID  = "reporter_key_id"
	ContextReporterOrg    = "reporter_org_type"
	ContextReporterScopes = "reporter_scopes"
)

// KeyPrefixForEnv returns the prefix minted and accepted in the given
// environment. Anything but "live" is treated as test.
func KeyPrefixForEnv(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "live") {
		return ReporterKeyPrefixLive
	}
	return ReporterKeyPrefixTest
}

// parseReporterKey splits a raw API key into prefix, key id, and
// secret. The secret may itself contain underscores, so only the first
// separator after the key id counts.
func parseReporterKey(raw string) (prefix, keyID, secret string, ok bool) {
	raw = strings.TrimSpace(raw)
	for _, p := range []string{ReporterKeyPrefixLive, ReporterKeyPrefixTest} {
		if !strings.HasPrefix(raw, p) {
			continue
		}
		rest := strings.TrimPrefix(raw, p)
		parts := strings.SplitN(rest, "_", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return "", "", "", false
		}
		return p, parts[0], parts[1], true
	}
	return "", "", "", false
}

// ReporterKeyAuth authenticates requests carrying a reporter API key in
// the Authorization header and enforces the required scopes. Lookup
// failures are reported as a generic invalid key so callers cannot
// probe for key ids.
func ReporterKeyAuth(db *database.Service, keyEnv string, requiredScopes ...string) gin.HandlerFunc {
	allowedPrefix := KeyPrefixForEnv(keyEnv)
	return func(c *gin.Context) {
		raw := extractToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "api key required"})
			c.Abort()
			return
		}

		prefix, keyID, secret, ok := parseReporterKey(raw)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			c.Abort()
			return
		}
		if prefix != allowedPrefix {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "api key not valid in this environment"})
			c.Abort()
			return
		}

		key, reporter, err := db.GetReporterKey(c.Request.Context(), keyID)
		if err != nil {
			if err != database.ErrNotFound {
				log.Errorf("Reporter key lookup failed: %v", err)
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(key.KeyPrefix), []byte(prefix)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			c.Abort()
			return
		}
		if key.Status != database.KeyStatusActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "api key revoked"})
			c.Abort()
			return
		}
		if reporter.Status != database.ReporterStatusActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "reporter suspended"})
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(secret)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			c.Abort()
			return
		}

		if missing := missingScope(key.Scopes, requiredScopes); missing != "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "missing scope " + missing})
			c.Abort()
			return
		}

		// Best effort; authentication already succeeded.
		db.TouchReporterKey(c.Request.Context(), key.ReporterID, key.KeyID)

		c.Set(ContextReporterID, key.ReporterID)
		c.Set(ContextReporterKeyID, key.KeyID)
		c.Set(ContextReporterOrg, reporter.OrgType)
		c.Set(ContextReporterScopes, key.Scopes)
		c.Next()
	}
}

func missingScope(granted, required []string) string {
	have := make(map[string]bool, len(granted))
	for _, s := range granted {
		have[s] = true
	}
	for _, s := range required {
		if !have[s] {
			return s
		}
	}
	return ""
}

// GetReporterIDFromContext retrieves the reporter id set by
// ReporterKeyAuth.
func GetReporterIDFromContext(c *gin.Context) string {
	if v, exists := c.Get(ContextReporterID); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// GetReporterKeyIDFromContext retrieves the key id set by
// ReporterKeyAuth.
func GetReporterKeyIDFromContext(c *gin.Context) string {
	if v, exists := c.Get(ContextReporterKeyID); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
