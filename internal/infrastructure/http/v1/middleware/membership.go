package middleware

import (
	"github.com/gin-gonic/gin"

	"agrichain/internal/core/apperror"
	appctx "agrichain/internal/core/context"
)

// RequireCompanyAccess checks that the authenticated principal is a member of
// the company addressed by the :companyId route parameter. Admins pass for
// any company.
//
// Must run after Auth. Malformed IDs fall through to the handler's own
// parsing so the client gets a validation error, not a misleading 403.
func RequireCompanyAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.Param("companyId")
		if companyID == "" {
			c.Next()
			return
		}

		if !appctx.HasCompanyAccess(c.Request.Context(), companyID) {
			_ = c.Error(
				apperror.NewForbidden("no access to company").
					WithDetail("company_id", companyID),
			)
			c.Abort()
			return
		}

		c.Next()
	}
}
