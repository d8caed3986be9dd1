package middleware

import (
	"net/http"

	"go-paynorth/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Gateway-injected identity headers. Authentication itself lives upstream;
// this service only trusts the network boundary the gateway enforces.
const (
	HeaderCompanyID = "X-Company-ID"
	HeaderUserID    = "X-User-ID"
)

// TenantContext populates the strongly-typed tenant identity (company id,
// acting user id) every downstream handler relies on. Requests without a
// valid company id never reach a handler.
func TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.GetHeader(HeaderCompanyID)
		if _, err := uuid.Parse(companyID); err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED",
				"missing or invalid company identity", nil)
			c.Abort()
			return
		}

		userID := c.GetHeader(HeaderUserID)
		if userID != "" {
			if _, err := uuid.Parse(userID); err != nil {
				response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED",
					"invalid user identity", nil)
				c.Abort()
				return
			}
		}

		c.Set("company_id", companyID)
		c.Set("user_id_validated", userID)

		c.Next()
	}
}
