package sweep

import "github.com/prometheus/client_golang/prometheus"

var roomsExpired = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "arena_rooms_expired_total",
		Help: "Total rooms destroyed by the expiry sweeper.",
	},
)

func init() {
	prometheus.MustRegister(roomsExpired)
}
