package handler

import (
	"errors"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/publica-app/publica/internal/domain"
	"github.com/publica-app/publica/internal/metrics"
	"github.com/publica-app/publica/internal/middleware"
	"github.com/publica-app/publica/internal/pagination"
	"github.com/publica-app/publica/internal/service"
	"github.com/publica-app/publica/pkg/log"
	"github.com/publica-app/publica/pkg/response"
)

// Handler handles HTTP requests for the publishing service.
type Handler struct {
	postService    service.PostService
	followService  service.FollowService
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Metrics
}

// NewHandler creates a new HTTP handler.
func NewHandler(postService service.PostService, followService service.FollowService, authMiddleware *middleware.AuthMiddleware, m *metrics.Metrics) *Handler {
	return &Handler{
		postService:    postService,
		followService:  followService,
		authMiddleware: authMiddleware,
		metrics:        m,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		posts := api.Group("/posts")
		{
			// Public routes
			posts.GET("", h.ListPosts)
			posts.GET("/:id", h.GetPost)

			// Protected routes
			posts.POST("", h.authMiddleware.RequireAuth(), h.CreatePost)
			posts.PUT("/:id", h.authMiddleware.RequireAuth(), h.EditPost)
			posts.POST("/:id/comments", h.authMiddleware.RequireAuth(), h.AddComment)
		}

		groups := api.Group("/groups")
		{
			groups.GET("", h.ListGroups)
			groups.GET("/:slug", h.GetGroup)
			groups.GET("/:slug/posts", h.ListGroupPosts)
		}

		authors := api.Group("/authors")
		{
			authors.GET("/:username/posts", h.ListAuthorPosts)
			authors.POST("/:username/follow", h.authMiddleware.RequireAuth(), h.Follow)
			authors.DELETE("/:username/follow", h.authMiddleware.RequireAuth(), h.Unfollow)
			authors.GET("/:username/follow", h.authMiddleware.RequireAuth(), h.FollowStatus)
		}

		api.GET("/feed", h.authMiddleware.RequireAuth(), h.ListFeed)
	}
}

// ListPosts lists all posts, newest first.
func (h *Handler) ListPosts(c *gin.Context) {
	h.listPosts(c, domain.AllScope(), "all")
}

// ListGroupPosts lists posts in a group.
func (h *Handler) ListGroupPosts(c *gin.Context) {
	h.listPosts(c, domain.GroupScope(c.Param("slug")), "group")
}

// ListAuthorPosts lists posts by an author.
func (h *Handler) ListAuthorPosts(c *gin.Context) {
	h.listPosts(c, domain.AuthorScope(c.Param("username")), "author")
}

// ListFeed lists posts by authors the viewer follows.
func (h *Handler) ListFeed(c *gin.Context) {
	viewerID := middleware.GetUserID(c)
	if viewerID == "" {
		response.Unauthorized(c, "unauthorized")
		return
	}
	h.listPosts(c, domain.FollowedScope(viewerID), "feed")
}

func (h *Handler) listPosts(c *gin.Context, scope domain.Scope, scopeLabel string) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	page, err := pageParam(c)
	if err != nil {
		response.BadRequest(c, "page must be a positive integer")
		return
	}

	result, err := h.postService.ListPosts(ctx, scope, page)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGroupNotFound):
			response.NotFound(c, "group not found")
		case errors.Is(err, service.ErrAuthorNotFound):
			response.NotFound(c, "author not found")
		case errors.Is(err, pagination.ErrPageOutOfRange):
			response.BadRequest(c, "page out of range")
		default:
			l.Error().Err(err).Str("scope", scopeLabel).Msg("failed to list posts")
			response.InternalError(c, "failed to list posts")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.ListingsServed.WithLabelValues(scopeLabel).Inc()
	}
	response.Success(c, result)
}

// GetPost retrieves a post with its comments.
func (h *Handler) GetPost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	postID := c.Param("id")

	detail, err := h.postService.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			response.NotFound(c, "post not found")
			return
		}
		l.Error().Err(err).Str("post_id", postID).Msg("failed to get post")
		response.InternalError(c, "failed to get post")
		return
	}

	response.Success(c, detail)
}

// CreatePost creates a new post. Accepts JSON or multipart form with an
// optional image file.
func (h *Handler) CreatePost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	author, ok := actor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req domain.CreatePostRequest
	image, err := bindPostForm(c, &req.Text, &req.GroupSlug)
	if err != nil {
		l.Warn().Err(err).Msg("failed to bind create post request")
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.postService.CreatePost(ctx, author, &req, image)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyText):
			response.BadRequest(c, "text must not be empty")
		case errors.Is(err, service.ErrGroupNotFound):
			response.NotFound(c, "group not found")
		default:
			l.Error().Err(err).Msg("failed to create post")
			response.InternalError(c, "failed to create post")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.PostsCreated.Inc()
	}
	response.Created(c, post)
}

// EditPost applies changes to the caller's own post.
func (h *Handler) EditPost(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	author, ok := actor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	postID := c.Param("id")

	var req domain.EditPostRequest
	image, err := bindPostForm(c, &req.Text, &req.GroupSlug)
	if err != nil {
		l.Warn().Err(err).Msg("failed to bind edit post request")
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.postService.EditPost(ctx, postID, author, &req, image)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.NotFound(c, "post not found")
		case errors.Is(err, service.ErrNotPostAuthor):
			response.Forbidden(c, "you are not the author of this post")
		case errors.Is(err, service.ErrEmptyText):
			response.BadRequest(c, "text must not be empty")
		case errors.Is(err, service.ErrGroupNotFound):
			response.NotFound(c, "group not found")
		default:
			l.Error().Err(err).Str("post_id", postID).Msg("failed to edit post")
			response.InternalError(c, "failed to edit post")
		}
		return
	}

	response.Success(c, post)
}

// AddComment adds a comment to a post.
func (h *Handler) AddComment(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	author, ok := actor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	postID := c.Param("id")

	var req domain.AddCommentRequest
	if err := c.ShouldBind(&req); err != nil {
		l.Warn().Err(err).Msg("failed to bind add comment request")
		response.BadRequest(c, err.Error())
		return
	}

	comment, err := h.postService.AddComment(ctx, postID, author, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.NotFound(c, "post not found")
		case errors.Is(err, service.ErrEmptyText):
			response.BadRequest(c, "text must not be empty")
		default:
			l.Error().Err(err).Str("post_id", postID).Msg("failed to add comment")
			response.InternalError(c, "failed to add comment")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.CommentsCreated.Inc()
	}
	response.Created(c, comment)
}

// ListGroups lists all groups.
func (h *Handler) ListGroups(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	groups, err := h.postService.ListGroups(ctx)
	if err != nil {
		l.Error().Err(err).Msg("failed to list groups")
		response.InternalError(c, "failed to list groups")
		return
	}

	response.Success(c, gin.H{"groups": groups})
}

// GetGroup retrieves a group by slug.
func (h *Handler) GetGroup(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	slug := c.Param("slug")

	group, err := h.postService.GetGroup(ctx, slug)
	if err != nil {
		if errors.Is(err, service.ErrGroupNotFound) {
			response.NotFound(c, "group not found")
			return
		}
		l.Error().Err(err).Str("slug", slug).Msg("failed to get group")
		response.InternalError(c, "failed to get group")
		return
	}

	response.Success(c, group)
}

// Follow follows an author.
func (h *Handler) Follow(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	follower, ok := actor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	targetUsername := c.Param("username")

	if err := h.followService.Follow(ctx, follower, targetUsername); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfFollow):
			response.BadRequest(c, "you cannot follow yourself")
		case errors.Is(err, service.ErrAuthorNotFound):
			response.NotFound(c, "author not found")
		default:
			l.Error().Err(err).Str("target", targetUsername).Msg("failed to follow author")
			response.InternalError(c, "failed to follow author")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.FollowRequests.Inc()
	}
	response.Success(c, gin.H{"following": true})
}

// Unfollow unfollows an author.
func (h *Handler) Unfollow(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	follower, ok := actor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	targetUsername := c.Param("username")

	if err := h.followService.Unfollow(ctx, follower, targetUsername); err != nil {
		switch {
		case errors.Is(err, service.ErrSelfFollow):
			response.BadRequest(c, "you cannot unfollow yourself")
		case errors.Is(err, service.ErrAuthorNotFound):
			response.NotFound(c, "author not found")
		default:
			l.Error().Err(err).Str("target", targetUsername).Msg("failed to unfollow author")
			response.InternalError(c, "failed to unfollow author")
		}
		return
	}

	if h.metrics != nil {
		h.metrics.UnfollowRequests.Inc()
	}
	response.Success(c, gin.H{"following": false})
}

// FollowStatus reports whether the caller follows the author.
func (h *Handler) FollowStatus(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	follower, ok := actor(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	targetUsername := c.Param("username")

	status, err := h.followService.Status(ctx, follower, targetUsername)
	if err != nil {
		if errors.Is(err, service.ErrAuthorNotFound) {
			response.NotFound(c, "author not found")
			return
		}
		l.Error().Err(err).Str("target", targetUsername).Msg("failed to get follow status")
		response.InternalError(c, "failed to get follow status")
		return
	}

	response.Success(c, status)
}

// actor reads the authenticated author from the gin context.
func actor(c *gin.Context) (domain.Author, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return domain.Author{}, false
	}
	return domain.Author{
		ID:       userID,
		Username: middleware.GetUsername(c),
	}, true
}

// pageParam reads the optional ?page= query parameter, defaulting to 1.
func pageParam(c *gin.Context) (int, error) {
	raw := c.Query("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, errors.New("invalid page")
	}
	return page, nil
}

// bindPostForm reads text and group from JSON or form body and, for
// multipart requests, the optional image file.
func bindPostForm(c *gin.Context, text, groupSlug *string) (*service.ImageUpload, error) {
	contentType := c.ContentType()

	if strings.HasPrefix(contentType, "multipart/form-data") {
		*text = c.PostForm("text")
		*groupSlug = c.PostForm("group")

		fileHeader, err := c.FormFile("image")
		if err != nil {
			// Image is optional.
			return nil, nil
		}
		return openUpload(fileHeader)
	}

	var body struct {
		Text  string `json:"text" form:"text"`
		Group string `json:"group" form:"group"`
	}
	if err := c.ShouldBind(&body); err != nil {
		return nil, err
	}
	*text = body.Text
	*groupSlug = body.Group
	return nil, nil
}

func openUpload(fh *multipart.FileHeader) (*service.ImageUpload, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, err
	}
	return &service.ImageUpload{
		Reader:      file,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Filename:    fh.Filename,
	}, nil
}
