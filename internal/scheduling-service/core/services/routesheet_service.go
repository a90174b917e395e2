package services

import (
	"context"
	"sort"

	"busline/internal/mylogger"
	"busline/internal/scheduling-service/core/domain/dto"
	"busline/internal/scheduling-service/core/domain/model"
	"busline/internal/scheduling-service/core/myerrors"
	"busline/internal/scheduling-service/core/ports"
)

// RouteSheetService is the read-only operational view: generated trips of a
// bus group, grouped by date and bus, for printing.
type RouteSheetService struct {
	ctx      context.Context
	mylog    mylogger.Logger
	tripRepo ports.ITripRepo
	busRepo  ports.IBusRepo
}

func NewRouteSheetService(ctx context.Context, log mylogger.Logger, tripRepo ports.ITripRepo, busRepo ports.IBusRepo) ports.IRouteSheetService {
	return &RouteSheetService{
		ctx:      ctx,
		mylog:    log,
		tripRepo: tripRepo,
		busRepo:  busRepo,
	}
}

func (rs *RouteSheetService) GetRouteSheet(actor dto.Actor, groupId string, from, to string) (dto.RouteSheet, error) {
	log := rs.mylog.Action("GetRouteSheet")

	fromDate, err := parseDate(from)
	if err != nil {
		return dto.RouteSheet{}, &myerrors.ValidationError{Field: "start_date", Reason: err.Error()}
	}
	toDate, err := parseDate(to)
	if err != nil {
		return dto.RouteSheet{}, &myerrors.ValidationError{Field: "end_date", Reason: err.Error()}
	}

	ctx, cancel := context.WithTimeout(rs.ctx, repoTimeout)
	defer cancel()

	group, err := rs.busRepo.GroupWithBuses(ctx, groupId)
	if err != nil {
		return dto.RouteSheet{}, err
	}
	if !actor.CanAccess(group.CooperativaId) {
		return dto.RouteSheet{}, myerrors.ErrCrossCooperativa
	}

	sheet := dto.RouteSheet{GroupId: group.Id, GroupName: group.Name, Dates: []dto.RouteSheetDate{}}
	if len(group.Buses) == 0 {
		return sheet, nil
	}

	busIds := make([]string, 0, len(group.Buses))
	busById := make(map[string]model.Bus, len(group.Buses))
	for _, b := range group.Buses {
		busIds = append(busIds, b.Id)
		busById[b.Id] = b
	}

	trips, err := rs.tripRepo.ForRouteSheet(ctx, busIds, fromDate, toDate)
	if err != nil {
		log.Error("cannot load route sheet trips", err, "group_id", groupId)
		return dto.RouteSheet{}, err
	}

	// date -> bus -> entries; repo order (date asc, departure asc) is kept
	// within each bucket.
	grouped := map[string]map[string][]dto.RouteSheetEntry{}
	for _, t := range trips {
		key := t.Date.Format(dateLayout)
		if grouped[key] == nil {
			grouped[key] = map[string][]dto.RouteSheetEntry{}
		}
		grouped[key][t.BusId] = append(grouped[key][t.BusId], dto.RouteSheetEntry{
			TripId:         t.Id,
			DepartureTime:  t.DepartureTime,
			Status:         t.Status,
			Route:          t.Route,
			PassengerCount: t.PassengerCount,
			DriverName:     t.DriverName,
			AssistantName:  t.AssistantName,
		})
	}

	dateKeys := make([]string, 0, len(grouped))
	for k := range grouped {
		dateKeys = append(dateKeys, k)
	}
	sort.Strings(dateKeys)

	for _, dateKey := range dateKeys {
		day := dto.RouteSheetDate{Date: dateKey}
		for _, bus := range group.Buses {
			entries, ok := grouped[dateKey][bus.Id]
			if !ok {
				continue
			}
			day.Buses = append(day.Buses, dto.RouteSheetBus{Bus: bus, Trips: entries})
		}
		sheet.Dates = append(sheet.Dates, day)
	}

	return sheet, nil
}
