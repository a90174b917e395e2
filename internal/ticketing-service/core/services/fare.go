package services

import (
	"math"

	"busline/internal/ticketing-service/core/domain/model"
	"busline/internal/ticketing-service/core/myerrors"
)

const (
	vipSurcharge     = 0.30
	premiumSurcharge = 0.50
)

// ComputeFare prices a journey on the route between two named points.
// Boarding and dropoff default to the route endpoints when empty.
// The seat surcharge is applied to the segment price and the result is
// rounded to cents.
func ComputeFare(route model.Route, boarding, dropoff, seatType string) (base, premium, total float64, err error) {
	if boarding == "" {
		boarding = route.Origin
	}
	if dropoff == "" {
		dropoff = route.Destination
	}

	base, err = segmentPrice(route, boarding, dropoff)
	if err != nil {
		return 0, 0, 0, err
	}

	switch seatType {
	case model.SeatVIP:
		premium = base * vipSurcharge
	case model.SeatPremium:
		premium = base * premiumSurcharge
	}

	base = round2(base)
	premium = round2(premium)
	total = round2(base + premium)
	return base, premium, total, nil
}

func segmentPrice(route model.Route, boarding, dropoff string) (float64, error) {
	fromOrigin := boarding == route.Origin
	toDestination := dropoff == route.Destination

	if fromOrigin && toDestination {
		return route.BasePrice, nil
	}

	var boardStop, dropStop model.Stop
	var boardOk, dropOk bool
	for _, s := range route.Stops {
		if s.Name == boarding {
			boardStop, boardOk = s, true
		}
		if s.Name == dropoff {
			dropStop, dropOk = s, true
		}
	}

	if !fromOrigin && !boardOk {
		return 0, &myerrors.ValidationError{Field: "boardingStop", Reason: "not on route"}
	}
	if !toDestination && !dropOk {
		return 0, &myerrors.ValidationError{Field: "dropoffStop", Reason: "not on route"}
	}

	switch {
	case fromOrigin:
		return dropStop.PriceFromOrigin, nil
	case toDestination:
		return route.BasePrice - boardStop.PriceFromOrigin, nil
	default:
		if dropStop.Order <= boardStop.Order {
			return 0, &myerrors.ValidationError{Field: "dropoffStop", Reason: "must come after boarding stop"}
		}
		return dropStop.PriceFromOrigin - boardStop.PriceFromOrigin, nil
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
