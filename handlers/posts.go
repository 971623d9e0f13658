package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/notifications"
	"github.com/zedemy/zedemy/backend/go-services/internal/posts"
	"github.com/zedemy/zedemy/backend/go-services/internal/progress"
	"github.com/zedemy/zedemy/backend/go-services/internal/users"
	"github.com/zedemy/zedemy/backend/go-services/pkg/logger"
	"github.com/zedemy/zedemy/backend/go-services/pkg/middleware"
)

// PostHandler serves /api/posts.
type PostHandler struct {
	Posts         *posts.Service
	Users         *users.Service
	Tracker       *progress.Tracker
	Notifications *notifications.Service
}

func (h *PostHandler) Register(rg *gin.RouterGroup, auth gin.HandlerFunc) {
	p := rg.Group("/posts")
	p.GET("", h.List)
	p.GET("/search", h.Search)
	p.GET("/category/:category", h.ByCategory)
	p.GET("/slug/:slug", h.BySlug)
	p.GET("/completed", auth, h.Completed)
	p.POST("", auth, h.Create)
	p.PUT("/complete/:postId", auth, h.Complete)
}

func (h *PostHandler) List(c *gin.Context) {
	list, err := h.Posts.List(c.Request.Context())
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PostHandler) Search(c *gin.Context) {
	list, err := h.Posts.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PostHandler) ByCategory(c *gin.Context) {
	list, err := h.Posts.ListByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PostHandler) BySlug(c *gin.Context) {
	p, err := h.Posts.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err, "Post not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *PostHandler) Completed(c *gin.Context) {
	u, err := h.Users.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err, "User not found")
		return
	}
	list, err := h.Posts.ListByIDs(c.Request.Context(), u.CompletedPosts)
	if err != nil {
		fail(c, err, "")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *PostHandler) Create(c *gin.Context) {
	var in posts.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	ctx := c.Request.Context()
	author, err := h.Users.Get(ctx, middleware.UserID(c))
	if err != nil {
		fail(c, err, "User not found")
		return
	}
	p, err := h.Posts.Create(ctx, author, in)
	if err != nil {
		fail(c, err, "")
		return
	}
	if h.Notifications != nil {
		if _, err := h.Notifications.NotifyNewPost(ctx, p); err != nil {
			logger.Errorf("notify followers of post %s: %v", p.ID, err)
		}
	}
	c.JSON(http.StatusCreated, p)
}

// Complete marks a post completed and reports a certificate when the
// completion finished the post's category.
func (h *PostHandler) Complete(c *gin.Context) {
	res, err := h.Tracker.Complete(c.Request.Context(), middleware.UserID(c), c.Param("postId"))
	switch {
	case err == nil:
	case errors.Is(err, apperr.ErrConflict):
		badRequest(c, "Post already marked as completed")
		return
	case errors.Is(err, progress.ErrUnknownUser):
		fail(c, err, "User not found")
		return
	case errors.Is(err, apperr.ErrNotFound):
		fail(c, err, "Post not found")
		return
	default:
		fail(c, err, "")
		return
	}
	if res.Certificate == nil {
		c.JSON(http.StatusOK, gin.H{"msg": "Post marked as completed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"msg":            "Category completed! Certificate issued.",
		"certificateUrl": res.Certificate.FilePath,
		"uniqueId":       res.Certificate.UniqueID,
	})
}
