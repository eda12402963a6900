// Package identity resolves the requesting tester. Authentication itself
// happens upstream; the gateway injects the authenticated tester ID and
// this middleware loads the account and enforces role checks.
package identity

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aimd54/testquiz/internal/models"
	"github.com/aimd54/testquiz/internal/repository"
	"github.com/aimd54/testquiz/pkg/logger"
)

// HeaderTesterID carries the authenticated tester's ID from the gateway.
const HeaderTesterID = "X-Tester-ID"

const contextKey = "identity.tester"

// TesterStore interface for account lookups.
type TesterStore interface {
	GetByID(id uint) (*models.Tester, error)
}

// Middleware loads the tester named by the gateway header and rejects
// requests without a valid account.
func Middleware(store TesterStore, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderTesterID)
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing tester identity"})
			return
		}

		tester, err := store.GetByID(uint(id))
		if err != nil {
			log.Warn().Str("tester_id", raw).Err(err).Msg("Unknown tester identity")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown tester"})
			return
		}
		if !tester.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		}

		c.Set(contextKey, tester)
		c.Next()
	}
}

// NewMiddleware builds the middleware over the concrete repository.
func NewMiddleware(repo *repository.TesterRepository, log *logger.Logger) gin.HandlerFunc {
	return Middleware(repo, log)
}

// RequireAdmin rejects non-admin accounts. Must run after Middleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		tester := CurrentTester(c)
		if tester == nil || !tester.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentTester returns the tester resolved for this request, or nil.
func CurrentTester(c *gin.Context) *models.Tester {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	tester, ok := v.(*models.Tester)
	if !ok {
		return nil
	}
	return tester
}
