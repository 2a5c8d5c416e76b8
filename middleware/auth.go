package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"incident-dashboard/config"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// Shared client so every validation call reuses connections and times
// out instead of hanging a dashboard request.
var authServiceHTTPClient = &http.Client{Timeout: 6 * time.Second}

// AuthMiddleware validates bearer tokens against the auth service and
// stores the caller's user id in the request context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c.GetHeader("Authorization"))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		userID, err := validateTokenWithAuthService(c.Request.Context(), token, cfg.AuthServiceURL)
		if err != nil {
			log.Warnf("Token validation failed: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("token", token)
		c.Next()
	}
}

// extractToken pulls the credential out of an Authorization header.
func extractToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

type validateTokenResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
	Error  string `json:"error"`
}

func validateTokenWithAuthService(ctx context.Context, token, authServiceURL string) (string, error) {
	payload, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return "", fmt.Errorf("failed to marshal token request: %w", err)
	}

	url := authServiceURL + "/api/v3/validate-token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create validation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := authServiceHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var result validateTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode validation response: %w", err)
	}
	if !result.Valid {
		if result.Error != "" {
			return "", fmt.Errorf("token rejected: %s", result.Error)
		}
		return "", fmt.Errorf("token rejected")
	}
	return result.UserID, nil
}

// GetUserIDFromContext retrieves the authenticated user id set by
// AuthMiddleware.
func GetUserIDFromContext(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	return ""
}

// GetBearerTokenFromContext retrieves the raw token set by
// AuthMiddleware.
func GetBearerTokenFromContext(c *gin.Context) string {
	if token, exists := c.Get("token"); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}
