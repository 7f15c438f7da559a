package domain

import "time"

// RouteStation is one scheduled stop on a route. ActualArrival stays
// nil until the bus really reaches the station; the auto verifier
// uses that to decide whether a delay claim held up.
type RouteStation struct {
	StationID     string     `json:"station_id"`
	ArrivalTime   time.Time  `json:"arrival_time"`
	ActualArrival *time.Time `json:"actual_arrival_time"`
}

// Route is the published schedule for a bus line. Read-only input to
// the verification job; the rewards engine never mutates routes.
type Route struct {
	ID       string
	Name     string
	Stations []RouteStation
}
