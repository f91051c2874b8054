package services

import (
	"math"

	"groundlink/internal/models"
	"groundlink/internal/utils"
)

// QuoteParams carries everything the fare computation needs. Service
// and vehicle rates are additive; all rates are integer cents.
type QuoteParams struct {
	PricingStrategy models.PricingStrategy
	DistanceMiles   float64
	DurationMinutes float64
	HoursRequested  float64
	StopCount       int

	ServiceMinFareCents   int64
	ServiceBaseFeeCents   int64
	ServicePerMileCents   int64
	ServicePerMinuteCents int64
	ServicePerHourCents   int64

	VehicleBaseFareCents  int64
	VehiclePerMileCents   int64
	VehiclePerMinuteCents int64
	VehiclePerHourCents   int64
	VehicleMinHours       float64
}

type QuoteBreakdown struct {
	BaseCents           int64 `json:"base_cents"`
	DistanceChargeCents int64 `json:"distance_charge_cents"`
	TimeChargeCents     int64 `json:"time_charge_cents"`
	HourlyChargeCents   int64 `json:"hourly_charge_cents"`
	StopSurchargeCents  int64 `json:"stop_surcharge_cents"`
	MinFareApplied      bool  `json:"min_fare_applied"`
}

type QuoteResult struct {
	SubtotalCents      int64          `json:"subtotal_cents"`
	StopSurchargeCents int64          `json:"stop_surcharge_cents"`
	TotalCents         int64          `json:"total_cents"`
	RequestedHours     float64        `json:"requested_hours"`
	BilledHours        int            `json:"billed_hours"`
	Breakdown          QuoteBreakdown `json:"breakdown"`
}

// Quote computes a deterministic fare for the given trip parameters.
// It is the single fare implementation for both the submission path and
// live estimates; no other component may duplicate this arithmetic.
//
// Each per-unit charge rounds to the nearest cent independently before
// summation. The minimum fare is a floor applied after the
// strategy-specific computation. Missing distance or duration on a
// point-to-point quote contributes zero; rejecting such bookings is the
// caller's policy, not the calculator's.
func Quote(params QuoteParams) QuoteResult {
	base := params.ServiceBaseFeeCents + params.VehicleBaseFareCents

	result := QuoteResult{
		RequestedHours: params.HoursRequested,
		Breakdown:      QuoteBreakdown{BaseCents: base},
	}

	raw := base

	switch params.PricingStrategy {
	case models.PricingPointToPoint:
		distanceCharge := roundUnitCharge(params.DistanceMiles, params.ServicePerMileCents+params.VehiclePerMileCents)
		timeCharge := roundUnitCharge(params.DurationMinutes, params.ServicePerMinuteCents+params.VehiclePerMinuteCents)
		result.Breakdown.DistanceChargeCents = distanceCharge
		result.Breakdown.TimeChargeCents = timeCharge
		raw += distanceCharge + timeCharge

	case models.PricingHourly:
		billed := billedHours(params.HoursRequested, params.VehicleMinHours)
		hourlyCharge := int64(billed) * (params.ServicePerHourCents + params.VehiclePerHourCents)
		result.BilledHours = billed
		result.Breakdown.HourlyChargeCents = hourlyCharge
		raw += hourlyCharge

	case models.PricingFlat:
		// base only
	}

	subtotal := raw
	if subtotal < params.ServiceMinFareCents {
		subtotal = params.ServiceMinFareCents
		result.Breakdown.MinFareApplied = true
	}

	surcharge := StopSurchargeCents(params.StopCount)
	result.SubtotalCents = subtotal
	result.StopSurchargeCents = surcharge
	result.Breakdown.StopSurchargeCents = surcharge
	result.TotalCents = subtotal + surcharge

	return result
}

// QuoteForConfig builds QuoteParams from stored pricing configuration.
// vehicle may be nil when the booking has no vehicle category yet.
func QuoteForConfig(service *models.ServiceType, vehicle *models.Vehicle, distanceMiles, durationMinutes, hoursRequested float64, stopCount int) QuoteResult {
	params := QuoteParams{
		PricingStrategy:       service.PricingStrategy,
		DistanceMiles:         distanceMiles,
		DurationMinutes:       durationMinutes,
		HoursRequested:        hoursRequested,
		StopCount:             stopCount,
		ServiceMinFareCents:   service.MinFareCents,
		ServiceBaseFeeCents:   service.BaseFeeCents,
		ServicePerMileCents:   service.PerMileCents,
		ServicePerMinuteCents: service.PerMinuteCents,
		ServicePerHourCents:   service.PerHourCents,
	}

	if vehicle != nil {
		params.VehicleBaseFareCents = vehicle.BaseFareCents
		params.VehiclePerMileCents = vehicle.PerMileCents
		params.VehiclePerMinuteCents = vehicle.PerMinuteCents
		params.VehiclePerHourCents = vehicle.PerHourCents
		params.VehicleMinHours = vehicle.MinHours
	}

	return Quote(params)
}

// StopSurchargeCents is the fixed per-stop fee, tracked separately from
// the subtotal.
func StopSurchargeCents(stopCount int) int64 {
	if stopCount <= 0 {
		return 0
	}
	return int64(stopCount) * utils.ExtraStopFeeCents
}

func billedHours(requested, vehicleMin float64) int {
	billed := int(math.Ceil(requested))
	min := int(math.Ceil(vehicleMin))
	if billed < min {
		billed = min
	}
	return billed
}

func roundUnitCharge(units float64, rateCents int64) int64 {
	if units <= 0 || rateCents <= 0 {
		return 0
	}
	return int64(math.Round(units * float64(rateCents)))
}
