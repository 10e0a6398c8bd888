package domain

import (
	"time"
)

// Author is a publishing identity. Identity originates in the external auth
// system; this service only mirrors id and username.
type Author struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Group is a curated collection of posts, managed by administrators.
type Group struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Post is an authored text entry, optionally placed in a group and
// optionally carrying an image.
type Post struct {
	ID             string    `json:"id"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	GroupID        string    `json:"group_id,omitempty"`
	GroupSlug      string    `json:"group_slug,omitempty"`
	Text           string    `json:"text"`
	ImageKey       string    `json:"-"`
	ImageURL       string    `json:"image_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Comment is an immutable remark on a post.
type Comment struct {
	ID             string    `json:"id"`
	PostID         string    `json:"post_id"`
	AuthorID       string    `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

// Follow is a directed edge: the follower's feed includes the followed
// author's posts.
type Follow struct {
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreatePostRequest represents a create post request.
type CreatePostRequest struct {
	Text      string `json:"text" form:"text"`
	GroupSlug string `json:"group" form:"group"`
}

// EditPostRequest represents an edit post request.
type EditPostRequest struct {
	Text      string `json:"text" form:"text"`
	GroupSlug string `json:"group" form:"group"`
}

// AddCommentRequest represents an add comment request.
type AddCommentRequest struct {
	Text string `json:"text" form:"text"`
}

// ListPostsRequest represents a listing request.
type ListPostsRequest struct {
	Page int `form:"page"`
}

// PostPage is a paginated listing response.
type PostPage struct {
	Posts      []Post `json:"posts"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalItems int    `json:"total_items"`
	TotalPages int    `json:"total_pages"`
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
}

// PostDetail is a post with its comments.
type PostDetail struct {
	Post     Post      `json:"post"`
	Comments []Comment `json:"comments"`
}

// FollowStatus reports the viewer's relation to an author.
type FollowStatus struct {
	Username      string `json:"username"`
	Following     bool   `json:"following"`
	FollowerCount int64  `json:"follower_count"`
}
