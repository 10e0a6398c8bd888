package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	ListingsServed   *prometheus.CounterVec
	PostsCreated     prometheus.Counter
	CommentsCreated  prometheus.Counter
	FollowRequests   prometheus.Counter
	UnfollowRequests prometheus.Counter
	CacheHits        prometheus.Counter
	CacheMisses      prometheus.Counter
}

// New registers and returns the service metrics.
func New() *Metrics {
	m := &Metrics{
		ListingsServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "publica_listings_served_total",
				Help: "Total number of listing pages served, by scope",
			},
			[]string{"scope"},
		),
		PostsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "publica_posts_created_total",
				Help: "Total number of posts created",
			},
		),
		CommentsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "publica_comments_created_total",
				Help: "Total number of comments created",
			},
		),
		FollowRequests: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "publica_follows_total",
				Help: "Total number of successful follow requests",
			},
		),
		UnfollowRequests: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "publica_unfollows_total",
				Help: "Total number of successful unfollow requests",
			},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "publica_listing_cache_hits_total",
				Help: "Total number of listing cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "publica_listing_cache_misses_total",
				Help: "Total number of listing cache misses",
			},
		),
	}

	prometheus.MustRegister(
		m.ListingsServed,
		m.PostsCreated,
		m.CommentsCreated,
		m.FollowRequests,
		m.UnfollowRequests,
		m.CacheHits,
		m.CacheMisses,
	)

	return m
}
