package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/publica-app/publica/internal/cache"
	"github.com/publica-app/publica/internal/domain"
	"github.com/publica-app/publica/internal/repository"
	"github.com/publica-app/publica/pkg/storage"
)

// In-memory repository fakes. Posts are kept newest first, matching the
// reverse-chronological order the real store returns.

type fakePostRepo struct {
	posts     []domain.Post
	seq       int
	follows   *fakeFollowRepo
	updateErr error
}

func newFakePostRepo(follows *fakeFollowRepo) *fakePostRepo {
	return &fakePostRepo{follows: follows}
}

func (r *fakePostRepo) Create(_ context.Context, post *domain.Post) error {
	r.seq++
	post.ID = fmt.Sprintf("post-%d", r.seq)
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	r.posts = append([]domain.Post{*post}, r.posts...)
	return nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id string) (*domain.Post, error) {
	for i := range r.posts {
		if r.posts[i].ID == id {
			p := r.posts[i]
			return &p, nil
		}
	}
	return nil, repository.ErrPostNotFound
}

func (r *fakePostRepo) Update(_ context.Context, post *domain.Post) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	for i := range r.posts {
		if r.posts[i].ID == post.ID {
			post.UpdatedAt = time.Now().UTC()
			r.posts[i] = *post
			return nil
		}
	}
	return repository.ErrPostNotFound
}

func (r *fakePostRepo) ListByScope(_ context.Context, scope domain.Scope, offset, limit int) ([]domain.Post, error) {
	matched := r.matching(scope)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *fakePostRepo) CountByScope(_ context.Context, scope domain.Scope) (int, error) {
	return len(r.matching(scope)), nil
}

func (r *fakePostRepo) matching(scope domain.Scope) []domain.Post {
	var out []domain.Post
	for _, p := range r.posts {
		switch scope.Kind {
		case domain.ScopeAll:
			out = append(out, p)
		case domain.ScopeGroup:
			if p.GroupSlug == scope.GroupSlug {
				out = append(out, p)
			}
		case domain.ScopeAuthor:
			if p.AuthorUsername == scope.AuthorUsername {
				out = append(out, p)
			}
		case domain.ScopeFollowed:
			if r.follows != nil && r.follows.has(scope.ViewerID, p.AuthorID) {
				out = append(out, p)
			}
		}
	}
	return out
}

type fakeGroupRepo struct {
	groups map[string]domain.Group
}

func newFakeGroupRepo(groups ...domain.Group) *fakeGroupRepo {
	m := make(map[string]domain.Group, len(groups))
	for _, g := range groups {
		m[g.Slug] = g
	}
	return &fakeGroupRepo{groups: m}
}

func (r *fakeGroupRepo) GetBySlug(_ context.Context, slug string) (*domain.Group, error) {
	g, ok := r.groups[slug]
	if !ok {
		return nil, repository.ErrGroupNotFound
	}
	return &g, nil
}

func (r *fakeGroupRepo) List(_ context.Context) ([]domain.Group, error) {
	out := make([]domain.Group, 0, len(r.groups))
	for _, g := range r.groups {
		out = append(out, g)
	}
	return out, nil
}

type fakeAuthorRepo struct {
	authors map[string]domain.Author // by username
}

func newFakeAuthorRepo(authors ...domain.Author) *fakeAuthorRepo {
	m := make(map[string]domain.Author, len(authors))
	for _, a := range authors {
		m[a.Username] = a
	}
	return &fakeAuthorRepo{authors: m}
}

func (r *fakeAuthorRepo) GetByUsername(_ context.Context, username string) (*domain.Author, error) {
	a, ok := r.authors[username]
	if !ok {
		return nil, repository.ErrAuthorNotFound
	}
	return &a, nil
}

func (r *fakeAuthorRepo) EnsureExists(_ context.Context, author *domain.Author) error {
	if _, ok := r.authors[author.Username]; !ok {
		r.authors[author.Username] = *author
	}
	return nil
}

type fakeCommentRepo struct {
	comments []domain.Comment
	seq      int
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	r.seq++
	comment.ID = fmt.Sprintf("comment-%d", r.seq)
	comment.CreatedAt = time.Now().UTC()
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *fakeCommentRepo) ListByPost(_ context.Context, postID string) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, c := range r.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

type edge struct {
	follower, following string
}

type fakeFollowRepo struct {
	edges map[edge]struct{}
}

func newFakeFollowRepo() *fakeFollowRepo {
	return &fakeFollowRepo{edges: make(map[edge]struct{})}
}

func (r *fakeFollowRepo) has(followerID, followingID string) bool {
	_, ok := r.edges[edge{followerID, followingID}]
	return ok
}

func (r *fakeFollowRepo) Follow(_ context.Context, followerID, followingID string) error {
	r.edges[edge{followerID, followingID}] = struct{}{}
	return nil
}

func (r *fakeFollowRepo) Unfollow(_ context.Context, followerID, followingID string) error {
	delete(r.edges, edge{followerID, followingID})
	return nil
}

func (r *fakeFollowRepo) IsFollowing(_ context.Context, followerID, followingID string) (bool, error) {
	return r.has(followerID, followingID), nil
}

func (r *fakeFollowRepo) FollowerCount(_ context.Context, userID string) (int64, error) {
	var n int64
	for e := range r.edges {
		if e.following == userID {
			n++
		}
	}
	return n, nil
}

type fakeStorage struct {
	objects map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Write(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStorage) Read(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.objects[key]
	return ok, nil
}

func (s *fakeStorage) GetURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "/media/" + key, nil
}

type fakeListingCache struct {
	pages  map[string]*domain.PostPage
	getErr error
	setErr error
	gets   int
	sets   int
}

func newFakeListingCache() *fakeListingCache {
	return &fakeListingCache{pages: make(map[string]*domain.PostPage)}
}

func (c *fakeListingCache) BuildListKey(scope string, page, pageSize int) string {
	return fmt.Sprintf("%s:page:%d:size:%d", scope, page, pageSize)
}

func (c *fakeListingCache) GetPage(_ context.Context, key string) (*domain.PostPage, error) {
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	page, ok := c.pages[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return page, nil
}

func (c *fakeListingCache) SetPage(_ context.Context, key string, page *domain.PostPage, _ time.Duration) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.pages[key] = page
	return nil
}

func (c *fakeListingCache) Close() error { return nil }

// closeRecorder wraps an in-memory reader and records Close calls.
type closeRecorder struct {
	io.Reader
	closed bool
}

func (r *closeRecorder) Close() error {
	r.closed = true
	return nil
}

// Interface checks.
var (
	_ repository.PostRepository    = (*fakePostRepo)(nil)
	_ repository.GroupRepository   = (*fakeGroupRepo)(nil)
	_ repository.AuthorRepository  = (*fakeAuthorRepo)(nil)
	_ repository.CommentRepository = (*fakeCommentRepo)(nil)
	_ repository.FollowRepository  = (*fakeFollowRepo)(nil)
	_ storage.Storage              = (*fakeStorage)(nil)
	_ cache.ListingCache           = (*fakeListingCache)(nil)
)
