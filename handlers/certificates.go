package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zedemy/zedemy/backend/go-services/internal/certificates"
	"github.com/zedemy/zedemy/backend/go-services/internal/users"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
	"github.com/zedemy/zedemy/backend/go-services/pkg/middleware"
)

// CertificateHandler serves /api/certificates. Lookup by uniqueId is public
// so certificates can be verified from the link printed on them.
type CertificateHandler struct {
	Certificates *certificates.Service
	Users        *users.Service
}

func (h *CertificateHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	g := rg.Group("/certificates")
	g.GET("/my-certificates", auth, h.Mine)
	g.GET("/:uniqueId", h.Verify)
	g.GET("/:uniqueId/download", h.Download)
}

func (h *CertificateHandler) Mine(c *gin.Context) {
	list, err := h.Certificates.ListForUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *CertificateHandler) Verify(c *gin.Context) {
	ctx := c.Request.Context()
	cert, err := h.Certificates.GetByUniqueID(ctx, c.Param("uniqueId"))
	if err != nil {
		fail(c, err, "Certificate not found")
		return
	}
	name := ""
	if u, err := h.Users.Get(ctx, cert.UserID); err == nil {
		name = u.Name
	} else {
		logger.Warnf("certificate %s: owner %s: %v", cert.UniqueID, cert.UserID, err)
	}
	c.JSON(http.StatusOK, gin.H{"certificate": cert, "user": gin.H{"name": name}})
}

func (h *CertificateHandler) Download(c *gin.Context) {
	url, ttl, err := h.Certificates.DownloadURL(c.Request.Context(), c.Param("uniqueId"))
	if err != nil {
		fail(c, err, "Certificate not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(ttl.Seconds())})
}
