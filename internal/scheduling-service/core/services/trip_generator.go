package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"busline/internal/metrics"
	"busline/internal/mylogger"
	"busline/internal/scheduling-service/core/domain/dto"
	"busline/internal/scheduling-service/core/domain/model"
	"busline/internal/scheduling-service/core/myerrors"
	"busline/internal/scheduling-service/core/ports"
)

const (
	recentTripsWindow = 5

	SkipReasonGroupExhausted = "group exhausted"
	SkipReasonNoBuses        = "no buses in group"
	SkipReasonDuplicate      = "duplicate"
)

// TripGenerator expands frequencies over a date range into concrete trips,
// assigning buses under turnaround and continuity rules and drivers on a
// best-effort, lowest-load basis.
type TripGenerator struct {
	ctx        context.Context
	mylog      mylogger.Logger
	collector  *metrics.Collector
	turnaround time.Duration

	frequencyRepo ports.IFrequencyRepo
	tripRepo      ports.ITripRepo
	driverRepo    ports.IDriverRepo
}

func NewTripGenerator(
	ctx context.Context,
	log mylogger.Logger,
	collector *metrics.Collector,
	turnaroundMinutes int,
	frequencyRepo ports.IFrequencyRepo,
	tripRepo ports.ITripRepo,
	driverRepo ports.IDriverRepo,
) ports.ITripGenerator {
	return &TripGenerator{
		ctx:           ctx,
		mylog:         log,
		collector:     collector,
		turnaround:    time.Duration(turnaroundMinutes) * minute,
		frequencyRepo: frequencyRepo,
		tripRepo:      tripRepo,
		driverRepo:    driverRepo,
	}
}

// driverPins tracks (date, driver) -> bus for one generation run, so a driver
// is never handed a second bus on the same date before the writes land.
type driverPins map[string]map[string]string

func (p driverPins) get(dateKey, driverId string) string {
	return p[dateKey][driverId]
}

func (p driverPins) set(dateKey, driverId, busId string) {
	if p[dateKey] == nil {
		p[dateKey] = make(map[string]string)
	}
	p[dateKey][driverId] = busId
}

func (tg *TripGenerator) GenerateTrips(actor dto.Actor, req dto.GenerateTripsRequest) (dto.GenerateTripsResponse, error) {
	log := tg.mylog.Action("GenerateTrips")
	started := time.Now()
	defer tg.collector.ObserveGeneration(started)

	start, err := parseDate(req.StartDate)
	if err != nil {
		return dto.GenerateTripsResponse{}, &myerrors.ValidationError{Field: "start_date", Reason: err.Error()}
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return dto.GenerateTripsResponse{}, &myerrors.ValidationError{Field: "end_date", Reason: err.Error()}
	}
	if end.Before(start) {
		return dto.GenerateTripsResponse{}, &myerrors.ValidationError{Field: "end_date", Reason: "before start_date"}
	}

	// Super admins may generate across tenants with an explicit id list.
	cooperativaId := actor.CooperativaId
	if actor.Role == model.RoleSuperAdmin && len(req.FrequencyIds) > 0 {
		cooperativaId = ""
	}

	frequencies, err := tg.frequencyRepo.ForGeneration(tg.ctx, req.FrequencyIds, cooperativaId)
	if err != nil {
		log.Error("cannot load frequencies", err)
		return dto.GenerateTripsResponse{}, err
	}

	res := dto.GenerateTripsResponse{
		Created: []dto.GeneratedTrip{},
		Skipped: []dto.SkippedSlot{},
	}
	pins := make(driverPins)

	for _, frequency := range frequencies {
		if len(frequency.Buses) == 0 {
			log.Warn("frequency has no active buses, skipping", "frequency_id", frequency.Id)
			tg.skip(&res, frequency.Id, start, SkipReasonNoBuses)
			continue
		}

		drivers, err := tg.driverRepo.ActiveByCooperativa(tg.ctx, frequency.CooperativaId)
		if err != nil {
			log.Error("cannot load drivers", err, "frequency_id", frequency.Id)
			return dto.GenerateTripsResponse{}, err
		}

		busIndex := 0
		for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
			if !containsDay(frequency.OperatingDays, model.WeekdayOf(date)) {
				continue
			}

			created, skipReason, err := tg.generateSlot(frequency, date, &busIndex, drivers, pins)
			if err != nil {
				log.Error("slot failed", err, "frequency_id", frequency.Id, "date", date.Format(dateLayout))
				tg.skip(&res, frequency.Id, date, err.Error())
				continue
			}
			if skipReason != "" {
				tg.skip(&res, frequency.Id, date, skipReason)
				continue
			}

			res.Created = append(res.Created, created)
			tg.collector.TripsGenerated.Inc()
			if created.ViaFallback {
				tg.collector.TripsFallback.Inc()
			}
		}
	}

	log.Info("generation finished",
		"created", len(res.Created),
		"skipped", len(res.Skipped),
		"range", fmt.Sprintf("%s..%s", req.StartDate, req.EndDate),
	)
	return res, nil
}

// generateSlot handles one (frequency, date) pair. A returned skip reason
// means the slot was deliberately passed over; errors are slot-local too and
// never abort the batch.
func (tg *TripGenerator) generateSlot(
	frequency model.FrequencyDetail,
	date time.Time,
	busIndex *int,
	drivers []model.Driver,
	pins driverPins,
) (dto.GeneratedTrip, string, error) {
	ctx, cancel := context.WithTimeout(tg.ctx, repoTimeout)
	defer cancel()

	target := departureInstant(date, frequency.DepartureTime)
	buses := frequency.Buses

	// Capacity gate: the group cannot serve more simultaneous departures
	// than it has buses.
	busIds := make([]string, 0, len(buses))
	for _, b := range buses {
		busIds = append(busIds, b.Id)
	}
	slotCount, err := tg.tripRepo.CountGroupSlot(ctx, date, frequency.DepartureTime, busIds)
	if err != nil {
		return dto.GeneratedTrip{}, "", err
	}
	if slotCount >= len(buses) {
		return dto.GeneratedTrip{}, SkipReasonGroupExhausted, nil
	}

	selected, continuity, viaFallback, err := tg.selectBus(ctx, frequency, target, buses, busIndex)
	if err != nil {
		return dto.GeneratedTrip{}, "", err
	}

	exists, err := tg.tripRepo.Exists(ctx, frequency.Id, date, selected.Id)
	if err != nil {
		return dto.GeneratedTrip{}, "", err
	}
	if exists {
		return dto.GeneratedTrip{}, SkipReasonDuplicate, nil
	}

	driverId, err := tg.pickDriver(ctx, frequency, date, target, selected.Id, drivers, pins)
	if err != nil {
		return dto.GeneratedTrip{}, "", err
	}

	trip := model.Trip{
		FrequencyId:   frequency.Id,
		BusId:         selected.Id,
		Date:          date,
		DepartureTime: frequency.DepartureTime,
		DriverId:      driverId,
		Status:        model.TripScheduled,
	}

	id, err := tg.tripRepo.Create(ctx, trip)
	if err != nil {
		// A concurrent run won the slot; treat like the pre-check.
		if errors.Is(err, myerrors.ErrDuplicateTrip) {
			return dto.GeneratedTrip{}, SkipReasonDuplicate, nil
		}
		return dto.GeneratedTrip{}, "", err
	}
	trip.Id = id

	if driverId != "" {
		pins.set(date.Format(dateLayout), driverId, selected.Id)
	}

	return dto.GeneratedTrip{Trip: trip, Continuity: continuity, ViaFallback: viaFallback}, "", nil
}

// selectBus scans the pool from the rotating cursor. An idle bus wins
// immediately; otherwise the first conflict-free bus whose last trip ended at
// the new route's origin wins. When nothing qualifies the next bus in
// rotation is taken as a best-effort fallback, which may violate turnaround.
func (tg *TripGenerator) selectBus(
	ctx context.Context,
	frequency model.FrequencyDetail,
	target time.Time,
	buses []model.Bus,
	busIndex *int,
) (selected model.Bus, continuity, viaFallback bool, err error) {
	n := len(buses)

	for i := 0; i < n; i++ {
		candidate := buses[(*busIndex+i)%n]

		recent, err := tg.tripRepo.RecentByBus(ctx, candidate.Id, target, recentTripsWindow)
		if err != nil {
			return model.Bus{}, false, false, err
		}

		// Never used: idle resource, highest priority.
		if len(recent) == 0 {
			*busIndex = (*busIndex + i + 1) % n
			return candidate, false, false, nil
		}

		conflicts := false
		for _, rt := range recent {
			arrival := departureInstant(rt.Date, rt.DepartureTime).
				Add(time.Duration(rt.Route.EstimatedDuration) * minute)
			if !arrival.Add(tg.turnaround).Before(target) {
				conflicts = true
				break
			}
		}
		if conflicts {
			continue
		}

		last := recent[0]
		if last.Route.Destination == frequency.Route.Origin {
			arrival := departureInstant(last.Date, last.DepartureTime).
				Add(time.Duration(last.Route.EstimatedDuration) * minute)
			if !arrival.Add(tg.turnaround).After(target) {
				*busIndex = (*busIndex + i + 1) % n
				return candidate, true, false, nil
			}
		}
	}

	// Round-robin fallback, continuity and turnaround no longer guaranteed.
	selected = buses[*busIndex%n]
	*busIndex = (*busIndex + 1) % n
	return selected, false, true, nil
}

// pickDriver returns the lowest-load conflict-free driver, or "" when none
// qualifies. Pool iteration order breaks ties.
func (tg *TripGenerator) pickDriver(
	ctx context.Context,
	frequency model.FrequencyDetail,
	date time.Time,
	target time.Time,
	busId string,
	drivers []model.Driver,
	pins driverPins,
) (string, error) {
	if len(drivers) == 0 {
		return "", nil
	}

	dateKey := date.Format(dateLayout)
	newEnd := target.Add(time.Duration(frequency.Route.EstimatedDuration)*minute + tg.turnaround)

	type candidate struct {
		id   string
		load int
	}
	var candidates []candidate

	for _, drv := range drivers {
		if pinned := pins.get(dateKey, drv.Id); pinned != "" && pinned != busId {
			continue
		}

		driverTrips, err := tg.tripRepo.DriverTripsOn(ctx, drv.Id, date, "")
		if err != nil {
			return "", err
		}

		// One physical vehicle per driver per day.
		otherBus := false
		for _, dt := range driverTrips {
			if dt.BusId != "" && dt.BusId != busId {
				otherBus = true
				break
			}
		}
		if otherBus {
			continue
		}

		overlap := false
		for _, dt := range driverTrips {
			existingStart, existingEnd := occupiedWindow(dt.Date, dt.DepartureTime,
				dt.Route.EstimatedDuration, int(tg.turnaround/minute))
			if windowsOverlap(target, newEnd, existingStart, existingEnd) {
				overlap = true
				break
			}
		}
		if overlap {
			continue
		}

		load := len(driverTrips)
		if pins.get(dateKey, drv.Id) != "" {
			load++
		}
		candidates = append(candidates, candidate{id: drv.Id, load: load})
	}

	if len(candidates) == 0 {
		return "", nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].load < candidates[j].load
	})
	return candidates[0].id, nil
}

func (tg *TripGenerator) skip(res *dto.GenerateTripsResponse, frequencyId string, date time.Time, reason string) {
	res.Skipped = append(res.Skipped, dto.SkippedSlot{
		FrequencyId: frequencyId,
		Date:        date,
		Reason:      reason,
	})
	tg.collector.TripsSkipped.WithLabelValues(reason).Inc()
}
