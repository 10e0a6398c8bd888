package domain

// ScopeKind selects which subset of posts a listing covers.
type ScopeKind int

const (
	// ScopeAll lists every post.
	ScopeAll ScopeKind = iota
	// ScopeGroup lists posts in the group with the given slug.
	ScopeGroup
	// ScopeAuthor lists posts by the author with the given username.
	ScopeAuthor
	// ScopeFollowed lists posts by authors the viewer follows.
	ScopeFollowed
)

// Scope is a tagged selector for post visibility. Exactly one of the
// argument fields is meaningful, depending on Kind.
type Scope struct {
	Kind           ScopeKind
	GroupSlug      string
	AuthorUsername string
	ViewerID       string
}

// AllScope selects every post.
func AllScope() Scope {
	return Scope{Kind: ScopeAll}
}

// GroupScope selects posts in the group with the given slug.
func GroupScope(slug string) Scope {
	return Scope{Kind: ScopeGroup, GroupSlug: slug}
}

// AuthorScope selects posts by the author with the given username.
func AuthorScope(username string) Scope {
	return Scope{Kind: ScopeAuthor, AuthorUsername: username}
}

// FollowedScope selects posts by authors the viewer follows.
func FollowedScope(viewerID string) Scope {
	return Scope{Kind: ScopeFollowed, ViewerID: viewerID}
}
