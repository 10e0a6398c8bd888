package service

import (
	"context"
	"errors"
	"io"

	"github.com/publica-app/publica/internal/domain"
)

var (
	ErrPostNotFound   = errors.New("post not found")
	ErrGroupNotFound  = errors.New("group not found")
	ErrAuthorNotFound = errors.New("author not found")
	ErrEmptyText      = errors.New("text must not be empty or whitespace-only")
	ErrNotPostAuthor  = errors.New("you are not the author of this post")
	ErrSelfFollow     = errors.New("you cannot follow yourself")
)

// ImageUpload carries an uploaded image into the service layer. The service
// takes ownership of Reader and closes it.
type ImageUpload struct {
	Reader      io.ReadCloser
	Size        int64
	ContentType string
	Filename    string
}

// PostService defines the interface for post business logic: scope-filtered
// listing, post lifecycle, comments, and group reads.
type PostService interface {
	ListPosts(ctx context.Context, scope domain.Scope, page int) (*domain.PostPage, error)
	GetPost(ctx context.Context, postID string) (*domain.PostDetail, error)
	CreatePost(ctx context.Context, author domain.Author, req *domain.CreatePostRequest, image *ImageUpload) (*domain.Post, error)
	EditPost(ctx context.Context, postID string, author domain.Author, req *domain.EditPostRequest, image *ImageUpload) (*domain.Post, error)
	AddComment(ctx context.Context, postID string, author domain.Author, req *domain.AddCommentRequest) (*domain.Comment, error)
	ListGroups(ctx context.Context) ([]domain.Group, error)
	GetGroup(ctx context.Context, slug string) (*domain.Group, error)
}

// FollowService defines the interface for follow-edge business logic.
// Targets are addressed by username, the way profiles are.
type FollowService interface {
	Follow(ctx context.Context, follower domain.Author, targetUsername string) error
	Unfollow(ctx context.Context, follower domain.Author, targetUsername string) error
	Status(ctx context.Context, follower domain.Author, targetUsername string) (*domain.FollowStatus, error)
}
