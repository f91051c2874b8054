package maps

import "context"

// DistanceProvider computes driving distance and duration for a trip.
// The booking flow treats it as advisory: client-supplied trip facts
// win when present, and a provider outage never blocks a submission.
type DistanceProvider interface {
	EstimateTrip(ctx context.Context, request *TripRequest) (*TripEstimate, error)
}

type Waypoint struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	PlaceID   string  `json:"place_id"`
}

type TripRequest struct {
	Origin      Waypoint   `json:"origin"`
	Destination Waypoint   `json:"destination"`
	Stops       []Waypoint `json:"stops,omitempty"`
}

type TripEstimate struct {
	DistanceMiles   float64 `json:"distance_miles"`
	DurationMinutes float64 `json:"duration_minutes"`
}
