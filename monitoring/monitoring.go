package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	FeedQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_query_duration_seconds",
			Help:    "Duration of post listing and feed queries.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	PostsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_created_total",
		Help: "Total posts successfully created",
	})

	CommentsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "comments_created_total",
		Help: "Total comments successfully created",
	})

	FollowChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "follow_changes_total",
		Help: "Total follow and unfollow operations",
	}, []string{"action"})

	FavoriteChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "favorite_changes_total",
		Help: "Total favorite and unfavorite operations",
	}, []string{"action"})

	LoginFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "login_failure_total",
		Help: "Total failed login attempts",
	}, []string{"reason"})

	RegisterSuccess = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "register_success_total",
		Help: "Total successful register attempts",
	})
)

func init() {
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(FeedQueryDuration)
	prometheus.MustRegister(PostsCreated)
	prometheus.MustRegister(CommentsCreated)
	prometheus.MustRegister(FollowChanges)
	prometheus.MustRegister(FavoriteChanges)
	prometheus.MustRegister(LoginFailure)
	prometheus.MustRegister(RegisterSuccess)
}

// ObserveFeed records how long a listing of the given kind took.
func ObserveFeed(kind string, start time.Time) {
	FeedQueryDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// Instrument tracks request timing and status code. Routes are labelled by
// their gin pattern so slugs and ids do not explode the label set.
func Instrument() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.
			WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
