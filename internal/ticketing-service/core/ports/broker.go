package ports

import "busline/internal/ticketing-service/core/domain/dto"

// IBrokerMessage publishes seat events for consumers outside this service.
type IBrokerMessage interface {
	PublishSeatEvent(event dto.SeatEvent) error
	Close() error
}

// ISeatNotifier pushes seat events to connected seat-map viewers.
type ISeatNotifier interface {
	Broadcast(tripId string, event dto.SeatEvent)
}
