package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	feedAppendCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livesim_feed_appended_total",
			Help: "The count of danmaku lines appended to room feeds.",
		},
		[]string{"room", "kind"},
	)
	giftCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livesim_gifts_total",
			Help: "The count of gifts emitted, by tier and origin.",
		},
		[]string{"room", "tier", "origin"},
	)
	giftRejectedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livesim_gifts_rejected_total",
			Help: "The count of gift sends rejected for insufficient funds.",
		},
		[]string{"room"},
	)
	reactionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livesim_reactions_spawned_total",
			Help: "The count of floating reactions spawned.",
		},
		[]string{"room"},
	)
	refreshOutcomeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livesim_refresh_outcomes_total",
			Help: "The count of content refreshes by outcome.",
		},
		[]string{"room", "outcome"},
	)
	refreshLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "livesim_refresh_latency_seconds",
			Help:    "The latency of content refresh requests.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"room"},
	)
	viewerGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "livesim_viewers",
			Help: "The simulated viewer count of each mounted room.",
		},
		[]string{"room"},
	)
	mountedRoomsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "livesim_rooms_mounted",
			Help: "The number of rooms currently mounted.",
		},
	)
	previewClientsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "livesim_preview_clients",
			Help: "The number of connected preview clients.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		feedAppendCounter,
		giftCounter,
		giftRejectedCounter,
		reactionCounter,
		refreshOutcomeCounter,
		refreshLatency,
		viewerGauge,
		mountedRoomsGauge,
		previewClientsGauge,
	)
}

func FeedAppended(room, kind string) {
	feedAppendCounter.WithLabelValues(room, kind).Inc()
}

// GiftEmitted origin 为 user 或 simulated
func GiftEmitted(room, tier, origin string) {
	giftCounter.WithLabelValues(room, tier, origin).Inc()
}

func GiftRejected(room string) {
	giftRejectedCounter.WithLabelValues(room).Inc()
}

func ReactionSpawned(room string) {
	reactionCounter.WithLabelValues(room).Inc()
}

func RefreshFinished(room, outcome string, started time.Time) {
	refreshOutcomeCounter.WithLabelValues(room, outcome).Inc()
	refreshLatency.WithLabelValues(room).Observe(time.Since(started).Seconds())
}

func SetViewers(room string, count int) {
	viewerGauge.WithLabelValues(room).Set(float64(count))
}

func RoomMounted() {
	mountedRoomsGauge.Inc()
}

// RoomUnmounted 同时清理该房间的观众数
func RoomUnmounted(room string) {
	mountedRoomsGauge.Dec()
	viewerGauge.DeleteLabelValues(room)
}

func PreviewConnected() {
	previewClientsGauge.Inc()
}

func PreviewDisconnected() {
	previewClientsGauge.Dec()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
