package models

type Location struct {
	Address   string  `json:"address" bson:"address" validate:"required"`
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	PlaceID   string  `json:"place_id" bson:"place_id"`
}

// Stop is an intermediate pickup/dropoff point between the main pickup
// and dropoff, in trip order.
type Stop struct {
	Address     string  `json:"address" bson:"address" validate:"required"`
	Latitude    float64 `json:"latitude" bson:"latitude"`
	Longitude   float64 `json:"longitude" bson:"longitude"`
	PlaceID     string  `json:"place_id" bson:"place_id"`
	WaitMinutes int     `json:"wait_minutes" bson:"wait_minutes"`
}
