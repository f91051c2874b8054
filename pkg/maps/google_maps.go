package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

const metersPerMile = 1609.344

type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

// EstimateTrip sums the driving legs origin -> stops -> destination.
func (g *GoogleMapsProvider) EstimateTrip(ctx context.Context, request *TripRequest) (*TripEstimate, error) {
	req := &maps.DirectionsRequest{
		Origin:      waypointParam(request.Origin),
		Destination: waypointParam(request.Destination),
		Mode:        maps.TravelModeDriving,
	}
	for _, stop := range request.Stops {
		req.Waypoints = append(req.Waypoints, waypointParam(stop))
	}

	routes, _, err := g.client.Directions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("no route found")
	}

	var meters int
	var seconds float64
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		seconds += leg.Duration.Seconds()
	}

	return &TripEstimate{
		DistanceMiles:   float64(meters) / metersPerMile,
		DurationMinutes: seconds / 60,
	}, nil
}

func waypointParam(w Waypoint) string {
	if w.PlaceID != "" {
		return "place_id:" + w.PlaceID
	}
	if w.Latitude != 0 || w.Longitude != 0 {
		return fmt.Sprintf("%f,%f", w.Latitude, w.Longitude)
	}
	return w.Address
}
