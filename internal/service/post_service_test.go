package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/publica-app/publica/internal/domain"
)

type postServiceFixture struct {
	svc     PostService
	posts   *fakePostRepo
	groups  *fakeGroupRepo
	authors *fakeAuthorRepo
	follows *fakeFollowRepo
}

func newPostServiceFixture(groups ...domain.Group) *postServiceFixture {
	return newPostServiceFixtureOpts(PostServiceOptions{}, groups...)
}

func newPostServiceFixtureOpts(opts PostServiceOptions, groups ...domain.Group) *postServiceFixture {
	follows := newFakeFollowRepo()
	posts := newFakePostRepo(follows)
	groupRepo := newFakeGroupRepo(groups...)
	authorRepo := newFakeAuthorRepo()
	if opts.PageSize == 0 {
		opts.PageSize = 10
	}
	svc := NewPostService(posts, groupRepo, authorRepo, &fakeCommentRepo{}, opts)
	return &postServiceFixture{
		svc:     svc,
		posts:   posts,
		groups:  groupRepo,
		authors: authorRepo,
		follows: follows,
	}
}

func (f *postServiceFixture) mustCreate(t *testing.T, author domain.Author, text, groupSlug string) *domain.Post {
	t.Helper()
	post, err := f.svc.CreatePost(context.Background(), author, &domain.CreatePostRequest{
		Text:      text,
		GroupSlug: groupSlug,
	}, nil)
	if err != nil {
		t.Fatalf("CreatePost(%q) failed: %v", text, err)
	}
	return post
}

var (
	alice = domain.Author{ID: "author-alice", Username: "alice"}
	bob   = domain.Author{ID: "author-bob", Username: "bob"}
)

func TestCreatePostRejectsWhitespaceText(t *testing.T) {
	f := newPostServiceFixture()

	for _, text := range []string{"", "   ", "\t\n "} {
		_, err := f.svc.CreatePost(context.Background(), alice, &domain.CreatePostRequest{Text: text}, nil)
		if !errors.Is(err, ErrEmptyText) {
			t.Errorf("CreatePost(%q): got %v, want ErrEmptyText", text, err)
		}
	}
}

func TestCreatePostUnknownGroup(t *testing.T) {
	f := newPostServiceFixture()

	_, err := f.svc.CreatePost(context.Background(), alice, &domain.CreatePostRequest{
		Text:      "hello",
		GroupSlug: "no-such-group",
	}, nil)
	if !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("got %v, want ErrGroupNotFound", err)
	}
}

func TestNewPostAppearsAtHeadOfListing(t *testing.T) {
	f := newPostServiceFixture()

	f.mustCreate(t, alice, "first", "")
	newest := f.mustCreate(t, bob, "second", "")

	page, err := f.svc.ListPosts(context.Background(), domain.AllScope(), 1)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(page.Posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(page.Posts))
	}
	if page.Posts[0].ID != newest.ID {
		t.Errorf("head of page is %s, want newest post %s", page.Posts[0].ID, newest.ID)
	}
}

func TestListPostsSplitsThirteenPostsIntoTwoPages(t *testing.T) {
	f := newPostServiceFixture()
	for i := 0; i < 13; i++ {
		f.mustCreate(t, alice, fmt.Sprintf("post %d", i), "")
	}

	page1, err := f.svc.ListPosts(context.Background(), domain.AllScope(), 1)
	if err != nil {
		t.Fatalf("ListPosts(page 1) failed: %v", err)
	}
	if len(page1.Posts) != 10 {
		t.Errorf("page 1 has %d posts, want 10", len(page1.Posts))
	}
	if page1.TotalPages != 2 || page1.TotalItems != 13 {
		t.Errorf("page 1 totals = %d pages / %d items, want 2 / 13", page1.TotalPages, page1.TotalItems)
	}
	if page1.HasPrev || !page1.HasNext {
		t.Errorf("page 1 HasPrev=%v HasNext=%v, want false/true", page1.HasPrev, page1.HasNext)
	}

	page2, err := f.svc.ListPosts(context.Background(), domain.AllScope(), 2)
	if err != nil {
		t.Fatalf("ListPosts(page 2) failed: %v", err)
	}
	if len(page2.Posts) != 3 {
		t.Errorf("page 2 has %d posts, want 3", len(page2.Posts))
	}
	if !page2.HasPrev || page2.HasNext {
		t.Errorf("page 2 HasPrev=%v HasNext=%v, want true/false", page2.HasPrev, page2.HasNext)
	}
}

func TestListPostsClampsPastLastPage(t *testing.T) {
	f := newPostServiceFixture()
	for i := 0; i < 13; i++ {
		f.mustCreate(t, alice, fmt.Sprintf("post %d", i), "")
	}

	page, err := f.svc.ListPosts(context.Background(), domain.AllScope(), 99)
	if err != nil {
		t.Fatalf("ListPosts(page 99) failed: %v", err)
	}
	if page.Page != 2 {
		t.Errorf("got page %d, want clamp to 2", page.Page)
	}
	if len(page.Posts) != 3 {
		t.Errorf("got %d posts, want 3", len(page.Posts))
	}
}

func TestListPostsGroupScopeFilters(t *testing.T) {
	f := newPostServiceFixture(domain.Group{ID: "g1", Slug: "cats", Title: "Cats"})

	f.mustCreate(t, alice, "in group", "cats")
	f.mustCreate(t, alice, "no group", "")

	page, err := f.svc.ListPosts(context.Background(), domain.GroupScope("cats"), 1)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(page.Posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(page.Posts))
	}
	if page.Posts[0].Text != "in group" {
		t.Errorf("got post %q, want %q", page.Posts[0].Text, "in group")
	}
}

func TestListPostsUnknownGroupScope(t *testing.T) {
	f := newPostServiceFixture()

	_, err := f.svc.ListPosts(context.Background(), domain.GroupScope("missing"), 1)
	if !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("got %v, want ErrGroupNotFound", err)
	}
}

func TestListPostsUnknownAuthorScope(t *testing.T) {
	f := newPostServiceFixture()

	_, err := f.svc.ListPosts(context.Background(), domain.AuthorScope("nobody"), 1)
	if !errors.Is(err, ErrAuthorNotFound) {
		t.Fatalf("got %v, want ErrAuthorNotFound", err)
	}
}

func TestFeedShowsOnlyFollowedAuthors(t *testing.T) {
	f := newPostServiceFixture()

	f.mustCreate(t, alice, "from alice", "")
	f.mustCreate(t, bob, "from bob", "")

	viewer := domain.Author{ID: "author-carol", Username: "carol"}
	if err := f.follows.Follow(context.Background(), viewer.ID, alice.ID); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}

	page, err := f.svc.ListPosts(context.Background(), domain.FollowedScope(viewer.ID), 1)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(page.Posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(page.Posts))
	}
	if page.Posts[0].AuthorID != alice.ID {
		t.Errorf("feed contains post by %s, want only %s", page.Posts[0].AuthorID, alice.ID)
	}
}

func TestFeedWithEmptyFollowSetIsEmptyPage(t *testing.T) {
	f := newPostServiceFixture()
	f.mustCreate(t, alice, "from alice", "")

	page, err := f.svc.ListPosts(context.Background(), domain.FollowedScope("author-loner"), 1)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(page.Posts) != 0 {
		t.Errorf("got %d posts, want empty feed", len(page.Posts))
	}
	if page.Page != 1 || page.TotalPages != 1 {
		t.Errorf("empty feed page=%d totalPages=%d, want 1/1", page.Page, page.TotalPages)
	}
}

func TestEditPostByNonAuthorForbidden(t *testing.T) {
	f := newPostServiceFixture()
	post := f.mustCreate(t, alice, "original", "")

	_, err := f.svc.EditPost(context.Background(), post.ID, bob, &domain.EditPostRequest{Text: "hijacked"}, nil)
	if !errors.Is(err, ErrNotPostAuthor) {
		t.Fatalf("got %v, want ErrNotPostAuthor", err)
	}

	got, err := f.svc.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Post.Text != "original" {
		t.Errorf("post text changed to %q after rejected edit", got.Post.Text)
	}
}

func TestEditPostUpdatesTextAndGroup(t *testing.T) {
	f := newPostServiceFixture(domain.Group{ID: "g1", Slug: "cats", Title: "Cats"})
	post := f.mustCreate(t, alice, "original", "cats")

	updated, err := f.svc.EditPost(context.Background(), post.ID, alice, &domain.EditPostRequest{
		Text: "edited",
	}, nil)
	if err != nil {
		t.Fatalf("EditPost failed: %v", err)
	}
	if updated.Text != "edited" {
		t.Errorf("got text %q, want %q", updated.Text, "edited")
	}
	if updated.GroupSlug != "" {
		t.Errorf("got group %q, want group cleared", updated.GroupSlug)
	}
}

func TestEditUnknownPost(t *testing.T) {
	f := newPostServiceFixture()

	_, err := f.svc.EditPost(context.Background(), "missing", alice, &domain.EditPostRequest{Text: "x"}, nil)
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("got %v, want ErrPostNotFound", err)
	}
}

func TestAddCommentToUnknownPost(t *testing.T) {
	f := newPostServiceFixture()

	_, err := f.svc.AddComment(context.Background(), "missing", alice, &domain.AddCommentRequest{Text: "hi"})
	if !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("got %v, want ErrPostNotFound", err)
	}
}

func TestAddCommentAppearsOnPost(t *testing.T) {
	f := newPostServiceFixture()
	post := f.mustCreate(t, alice, "a post", "")

	comment, err := f.svc.AddComment(context.Background(), post.ID, bob, &domain.AddCommentRequest{Text: "nice"})
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if comment.AuthorUsername != bob.Username {
		t.Errorf("comment author %q, want %q", comment.AuthorUsername, bob.Username)
	}

	detail, err := f.svc.GetPost(context.Background(), post.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if len(detail.Comments) != 1 || detail.Comments[0].Text != "nice" {
		t.Errorf("got comments %+v, want single comment %q", detail.Comments, "nice")
	}
}

func TestAddCommentRejectsWhitespaceText(t *testing.T) {
	f := newPostServiceFixture()
	post := f.mustCreate(t, alice, "a post", "")

	_, err := f.svc.AddComment(context.Background(), post.ID, bob, &domain.AddCommentRequest{Text: "  \n"})
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("got %v, want ErrEmptyText", err)
	}
}

func TestListPostsServesAllScopeFromCache(t *testing.T) {
	listingCache := newFakeListingCache()
	f := newPostServiceFixtureOpts(PostServiceOptions{
		ListingCache: listingCache,
		CacheTTL:     time.Minute,
	})
	f.mustCreate(t, alice, "cached post", "")

	// First read misses and fills the cache.
	page1, err := f.svc.ListPosts(context.Background(), domain.AllScope(), 1)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if listingCache.gets != 1 || listingCache.sets != 1 {
		t.Fatalf("after miss: gets=%d sets=%d, want 1/1", listingCache.gets, listingCache.sets)
	}

	// Until the entry expires, a new post is invisible to the ALL listing.
	f.mustCreate(t, alice, "newer post", "")

	page2, err := f.svc.ListPosts(context.Background(), domain.AllScope(), 1)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if listingCache.sets != 1 {
		t.Errorf("hit wrote to cache: sets=%d, want 1", listingCache.sets)
	}
	if len(page2.Posts) != len(page1.Posts) {
		t.Errorf("cache hit returned %d posts, want stale page with %d", len(page2.Posts), len(page1.Posts))
	}
}

func TestListPostsCacheCoversOnlyAllScope(t *testing.T) {
	listingCache := newFakeListingCache()
	f := newPostServiceFixtureOpts(PostServiceOptions{
		ListingCache: listingCache,
		CacheTTL:     time.Minute,
	}, domain.Group{ID: "g1", Slug: "cats", Title: "Cats"})
	f.mustCreate(t, alice, "in group", "cats")

	if _, err := f.svc.ListPosts(context.Background(), domain.GroupScope("cats"), 1); err != nil {
		t.Fatalf("ListPosts(group) failed: %v", err)
	}
	if _, err := f.svc.ListPosts(context.Background(), domain.AuthorScope(alice.Username), 1); err != nil {
		t.Fatalf("ListPosts(author) failed: %v", err)
	}

	if listingCache.gets != 0 || listingCache.sets != 0 {
		t.Errorf("non-ALL scopes touched the cache: gets=%d sets=%d, want 0/0", listingCache.gets, listingCache.sets)
	}
}

func TestListPostsCacheErrorsAreBestEffort(t *testing.T) {
	listingCache := newFakeListingCache()
	listingCache.getErr = errors.New("redis down")
	listingCache.setErr = errors.New("redis down")
	f := newPostServiceFixtureOpts(PostServiceOptions{
		ListingCache: listingCache,
		CacheTTL:     time.Minute,
	})
	f.mustCreate(t, alice, "a post", "")

	page, err := f.svc.ListPosts(context.Background(), domain.AllScope(), 1)
	if err != nil {
		t.Fatalf("ListPosts failed on cache error: %v", err)
	}
	if len(page.Posts) != 1 {
		t.Errorf("got %d posts from db fallback, want 1", len(page.Posts))
	}
}

func TestCreatePostClosesImageReader(t *testing.T) {
	store := newFakeStorage()
	f := newPostServiceFixtureOpts(PostServiceOptions{Store: store})

	reader := &closeRecorder{Reader: strings.NewReader("image bytes")}
	post, err := f.svc.CreatePost(context.Background(), alice, &domain.CreatePostRequest{Text: "with image"}, &ImageUpload{
		Reader:      reader,
		Size:        11,
		ContentType: "image/png",
		Filename:    "photo.png",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if !reader.closed {
		t.Error("image reader not closed after create")
	}
	if post.ImageKey == "" {
		t.Fatal("post has no image key")
	}
	if _, ok := store.objects[post.ImageKey]; !ok {
		t.Errorf("image %q not written to storage", post.ImageKey)
	}
}

func TestCreatePostClosesImageReaderOnRejection(t *testing.T) {
	store := newFakeStorage()
	f := newPostServiceFixtureOpts(PostServiceOptions{Store: store})

	reader := &closeRecorder{Reader: strings.NewReader("image bytes")}
	_, err := f.svc.CreatePost(context.Background(), alice, &domain.CreatePostRequest{Text: "  "}, &ImageUpload{
		Reader:   reader,
		Size:     11,
		Filename: "photo.png",
	})
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("got %v, want ErrEmptyText", err)
	}
	if !reader.closed {
		t.Error("image reader not closed after rejected create")
	}
	if len(store.objects) != 0 {
		t.Errorf("%d objects stored for rejected post, want 0", len(store.objects))
	}
}

func TestEditPostDeletesNewImageWhenUpdateFails(t *testing.T) {
	store := newFakeStorage()
	f := newPostServiceFixtureOpts(PostServiceOptions{Store: store})
	post := f.mustCreate(t, alice, "original", "")

	f.posts.updateErr = errors.New("db down")

	reader := &closeRecorder{Reader: strings.NewReader("replacement")}
	_, err := f.svc.EditPost(context.Background(), post.ID, alice, &domain.EditPostRequest{Text: "edited"}, &ImageUpload{
		Reader:   reader,
		Size:     11,
		Filename: "new.png",
	})
	if err == nil {
		t.Fatal("EditPost succeeded, want update error")
	}
	if !reader.closed {
		t.Error("image reader not closed after failed edit")
	}
	if len(store.objects) != 0 {
		t.Errorf("%d objects left in storage after failed update, want orphan cleaned up", len(store.objects))
	}
	if len(store.deleted) != 1 {
		t.Errorf("got %d storage deletes, want 1", len(store.deleted))
	}
}

func TestEditPostReplacesOldImage(t *testing.T) {
	store := newFakeStorage()
	f := newPostServiceFixtureOpts(PostServiceOptions{Store: store})

	first := &closeRecorder{Reader: strings.NewReader("first")}
	post, err := f.svc.CreatePost(context.Background(), alice, &domain.CreatePostRequest{Text: "with image"}, &ImageUpload{
		Reader:   first,
		Size:     5,
		Filename: "a.png",
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	oldKey := post.ImageKey

	second := &closeRecorder{Reader: strings.NewReader("second")}
	updated, err := f.svc.EditPost(context.Background(), post.ID, alice, &domain.EditPostRequest{Text: "edited"}, &ImageUpload{
		Reader:   second,
		Size:     6,
		Filename: "b.png",
	})
	if err != nil {
		t.Fatalf("EditPost failed: %v", err)
	}
	if updated.ImageKey == oldKey {
		t.Error("image key unchanged after replacement")
	}
	if _, ok := store.objects[oldKey]; ok {
		t.Errorf("replaced image %q still in storage", oldKey)
	}
	if _, ok := store.objects[updated.ImageKey]; !ok {
		t.Errorf("new image %q not in storage", updated.ImageKey)
	}
}

func TestGetGroup(t *testing.T) {
	f := newPostServiceFixture(domain.Group{ID: "g1", Slug: "cats", Title: "Cats"})

	group, err := f.svc.GetGroup(context.Background(), "cats")
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if group.Title != "Cats" {
		t.Errorf("got title %q, want %q", group.Title, "Cats")
	}

	if _, err := f.svc.GetGroup(context.Background(), "dogs"); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("GetGroup(dogs): got %v, want ErrGroupNotFound", err)
	}
}
