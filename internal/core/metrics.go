package core

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_ws_connections",
			Help: "Current number of active websocket connections.",
		},
	)
	wsRooms = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "arena_ws_rooms",
			Help: "Current number of rooms with at least one connected client.",
		},
	)
	wsEventsDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arena_ws_events_delivered_total",
			Help: "Total websocket events delivered to clients.",
		},
	)
)

func init() {
	prometheus.MustRegister(wsConnections, wsRooms, wsEventsDelivered)
}

// IncConnections bumps the live connection gauge.
func IncConnections() {
	wsConnections.Inc()
}

// DecConnections drops the live connection gauge.
func DecConnections() {
	wsConnections.Dec()
}

func setRoomsGauge(count int) {
	wsRooms.Set(float64(count))
}

func addDelivered(count int) {
	if count > 0 {
		wsEventsDelivered.Add(float64(count))
	}
}
