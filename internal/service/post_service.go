package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/publica-app/publica/internal/audit"
	"github.com/publica-app/publica/internal/cache"
	"github.com/publica-app/publica/internal/domain"
	"github.com/publica-app/publica/internal/events"
	"github.com/publica-app/publica/internal/metrics"
	"github.com/publica-app/publica/internal/pagination"
	"github.com/publica-app/publica/internal/repository"
	pkglog "github.com/publica-app/publica/pkg/log"
	"github.com/publica-app/publica/pkg/storage"
)

// postService implements PostService.
type postService struct {
	posts    repository.PostRepository
	groups   repository.GroupRepository
	authors  repository.AuthorRepository
	comments repository.CommentRepository

	listingCache cache.ListingCache
	cacheTTL     time.Duration

	store     storage.Storage
	publisher events.Publisher
	metrics   *metrics.Metrics

	pageSize int
}

// PostServiceOptions configures NewPostService. ListingCache may be nil to
// disable page caching; Store may be nil to reject image uploads.
type PostServiceOptions struct {
	ListingCache cache.ListingCache
	CacheTTL     time.Duration
	Store        storage.Storage
	Publisher    events.Publisher
	Metrics      *metrics.Metrics
	PageSize     int
}

// NewPostService creates a new PostService instance.
func NewPostService(
	posts repository.PostRepository,
	groups repository.GroupRepository,
	authors repository.AuthorRepository,
	comments repository.CommentRepository,
	opts PostServiceOptions,
) PostService {
	if opts.PageSize < 1 {
		opts.PageSize = pagination.DefaultPageSize
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	return &postService{
		posts:        posts,
		groups:       groups,
		authors:      authors,
		comments:     comments,
		listingCache: opts.ListingCache,
		cacheTTL:     opts.CacheTTL,
		store:        opts.Store,
		publisher:    opts.Publisher,
		metrics:      opts.Metrics,
		pageSize:     opts.PageSize,
	}
}

// ListPosts returns one page of posts visible under the scope, newest first.
// Unknown group slugs and author usernames fail with the NotFound errors; a
// followed-authors scope over an empty follow set is an empty page, not an
// error. The ALL scope is served through the listing cache when one is
// configured; entries expire by time only, so a fresh post may take up to
// the TTL to appear there.
func (s *postService) ListPosts(ctx context.Context, scope domain.Scope, page int) (*domain.PostPage, error) {
	l := pkglog.Ctx(ctx)

	if err := s.resolveScope(ctx, scope); err != nil {
		return nil, err
	}

	useCache := s.listingCache != nil && scope.Kind == domain.ScopeAll
	var cacheKey string
	if useCache {
		// Keyed by the requested page, mirroring a URL-keyed page cache.
		cacheKey = s.listingCache.BuildListKey("all", page, s.pageSize)
		cached, err := s.listingCache.GetPage(ctx, cacheKey)
		if err == nil {
			if s.metrics != nil {
				s.metrics.CacheHits.Inc()
			}
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn().Err(err).Msg("listing cache get failed, falling back to db")
		}
		if s.metrics != nil {
			s.metrics.CacheMisses.Inc()
		}
	}

	total, err := s.posts.CountByScope(ctx, scope)
	if err != nil {
		return nil, err
	}

	w, err := pagination.Resolve(total, s.pageSize, page)
	if err != nil {
		return nil, err
	}

	posts, err := s.posts.ListByScope(ctx, scope, w.Offset, w.Limit)
	if err != nil {
		return nil, err
	}

	for i := range posts {
		s.fillImageURL(ctx, &posts[i])
	}

	result := &domain.PostPage{
		Posts:      posts,
		Page:       w.Page,
		PageSize:   w.PageSize,
		TotalItems: w.TotalItems,
		TotalPages: w.TotalPages,
		HasPrev:    w.HasPrev,
		HasNext:    w.HasNext,
	}

	if useCache {
		if err := s.listingCache.SetPage(ctx, cacheKey, result, s.cacheTTL); err != nil {
			l.Warn().Err(err).Msg("listing cache set failed")
		}
	}

	return result, nil
}

// GetPost retrieves a post with its comments.
func (s *postService) GetPost(ctx context.Context, postID string) (*domain.PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	s.fillImageURL(ctx, post)

	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &domain.PostDetail{
		Post:     *post,
		Comments: comments,
	}, nil
}

// CreatePost validates and persists a new post by the author.
func (s *postService) CreatePost(ctx context.Context, author domain.Author, req *domain.CreatePostRequest, image *ImageUpload) (*domain.Post, error) {
	l := pkglog.Ctx(ctx)
	if image != nil {
		defer image.Reader.Close()
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	groupID, groupSlug, err := s.resolveGroup(ctx, req.GroupSlug)
	if err != nil {
		return nil, err
	}

	if err := s.authors.EnsureExists(ctx, &author); err != nil {
		return nil, err
	}

	imageKey, err := s.storeImage(ctx, image)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		GroupID:        groupID,
		GroupSlug:      groupSlug,
		Text:           req.Text,
		ImageKey:       imageKey,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	audit.Log(ctx, audit.ActionCreatePost, author.ID, "post created")
	s.publish(ctx, &events.Event{
		Type:      events.TypePostCreated,
		PostID:    post.ID,
		AuthorID:  author.ID,
		GroupSlug: groupSlug,
	})

	s.fillImageURL(ctx, post)
	l.Debug().Str("post_id", post.ID).Msg("post created")
	return post, nil
}

// EditPost applies the author's changes to their own post.
func (s *postService) EditPost(ctx context.Context, postID string, author domain.Author, req *domain.EditPostRequest, image *ImageUpload) (*domain.Post, error) {
	l := pkglog.Ctx(ctx)
	if image != nil {
		defer image.Reader.Close()
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.AuthorID != author.ID {
		return nil, ErrNotPostAuthor
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	groupID, groupSlug, err := s.resolveGroup(ctx, req.GroupSlug)
	if err != nil {
		return nil, err
	}

	oldImageKey := post.ImageKey
	newImageKey := ""
	if image != nil {
		newImageKey, err = s.storeImage(ctx, image)
		if err != nil {
			return nil, err
		}
		post.ImageKey = newImageKey
	}

	post.Text = req.Text
	post.GroupID = groupID
	post.GroupSlug = groupSlug

	if err := s.posts.Update(ctx, post); err != nil {
		// Don't orphan the freshly stored replacement image.
		if newImageKey != "" && s.store != nil {
			if delErr := s.store.Delete(ctx, newImageKey); delErr != nil {
				l.Warn().Err(delErr).Str("key", newImageKey).Msg("failed to delete stored image after update failure")
			}
		}
		return nil, err
	}

	if newImageKey != "" && oldImageKey != "" && s.store != nil {
		if err := s.store.Delete(ctx, oldImageKey); err != nil {
			l.Warn().Err(err).Str("key", oldImageKey).Msg("failed to delete replaced image")
		}
	}

	audit.LogWithDetail(ctx, audit.ActionEditPost, author.ID, postID, "post edited")
	s.publish(ctx, &events.Event{
		Type:      events.TypePostEdited,
		PostID:    post.ID,
		AuthorID:  author.ID,
		GroupSlug: groupSlug,
	})

	s.fillImageURL(ctx, post)
	return post, nil
}

// AddComment validates and persists a comment on the post.
func (s *postService) AddComment(ctx context.Context, postID string, author domain.Author, req *domain.AddCommentRequest) (*domain.Comment, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, ErrEmptyText
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if err := s.authors.EnsureExists(ctx, &author); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		PostID:         post.ID,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Text:           req.Text,
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	s.publish(ctx, &events.Event{
		Type:      events.TypeCommentCreated,
		PostID:    post.ID,
		AuthorID:  author.ID,
		CommentID: comment.ID,
	})

	return comment, nil
}

// ListGroups lists all groups.
func (s *postService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	return s.groups.List(ctx)
}

// GetGroup retrieves a group by slug.
func (s *postService) GetGroup(ctx context.Context, slug string) (*domain.Group, error) {
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

// resolveScope verifies that the scope's group or author exists. The
// followed scope needs no check: an empty follow set is a valid, empty feed.
func (s *postService) resolveScope(ctx context.Context, scope domain.Scope) error {
	switch scope.Kind {
	case domain.ScopeGroup:
		if _, err := s.groups.GetBySlug(ctx, scope.GroupSlug); err != nil {
			if errors.Is(err, repository.ErrGroupNotFound) {
				return ErrGroupNotFound
			}
			return err
		}
	case domain.ScopeAuthor:
		if _, err := s.authors.GetByUsername(ctx, scope.AuthorUsername); err != nil {
			if errors.Is(err, repository.ErrAuthorNotFound) {
				return ErrAuthorNotFound
			}
			return err
		}
	}
	return nil
}

// resolveGroup maps an optional group slug to its ID.
func (s *postService) resolveGroup(ctx context.Context, slug string) (groupID, groupSlug string, err error) {
	if slug == "" {
		return "", "", nil
	}
	group, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrGroupNotFound) {
			return "", "", ErrGroupNotFound
		}
		return "", "", err
	}
	return group.ID, group.Slug, nil
}

// storeImage writes an uploaded image to object storage and returns its key.
func (s *postService) storeImage(ctx context.Context, image *ImageUpload) (string, error) {
	if image == nil {
		return "", nil
	}
	if s.store == nil {
		return "", fmt.Errorf("image uploads are not configured")
	}

	key := "posts/" + uuid.New().String() + strings.ToLower(filepath.Ext(image.Filename))
	if err := s.store.Write(ctx, key, image.Reader, image.Size, image.ContentType); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return key, nil
}

// fillImageURL resolves the stored image key to a serveable URL, best-effort.
func (s *postService) fillImageURL(ctx context.Context, post *domain.Post) {
	if post.ImageKey == "" || s.store == nil {
		return
	}
	url, err := s.store.GetURL(ctx, post.ImageKey, time.Hour)
	if err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Str("key", post.ImageKey).Msg("failed to resolve image url")
		return
	}
	post.ImageURL = url
}

// publish emits an event, best-effort.
func (s *postService) publish(ctx context.Context, event *events.Event) {
	event.Timestamp = time.Now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Str("event_type", event.Type).Msg("event publish failed")
	}
}

// Ensure interface is satisfied at compile time.
var _ PostService = (*postService)(nil)
