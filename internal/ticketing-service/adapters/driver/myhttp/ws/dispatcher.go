package ws

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"busline/internal/mylogger"
	"busline/internal/ticketing-service/core/domain/dto"
)

// websocketUpgrader upgrades incoming HTTP requests into a persistent
// websocket connection.
var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ClientList is a map used to help manage a map of clients
type ClientList map[*Client]bool

// Dispatcher keeps one room of viewers per trip and fans seat events
// out to them.
type Dispatcher struct {
	rooms map[string]ClientList
	sync.RWMutex
	log mylogger.Logger
}

func NewDispatcher(log mylogger.Logger) *Dispatcher {
	return &Dispatcher{
		rooms: make(map[string]ClientList),
		log:   log,
	}
}

// WatchHandler subscribes the caller to live seat events for one trip.
func (d *Dispatcher) WatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := d.log.Action("watchHandler")
		tripId := r.PathValue("trip_id")

		if tripId == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		conn, err := websocketUpgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("cannot upgrade", err)
			return
		}

		client := NewClient(r.Context(), conn, d, tripId)
		d.addClient(client)
		go client.ReadMessage()
		go client.WriteMessage()
	}
}

// Broadcast sends the event to every viewer of the trip. Slow clients
// are dropped instead of blocking the sender.
func (d *Dispatcher) Broadcast(tripId string, event dto.SeatEvent) {
	d.RLock()
	defer d.RUnlock()

	for client := range d.rooms[tripId] {
		select {
		case client.egress <- event:
		default:
			go d.removeClient(client)
		}
	}
}

func (d *Dispatcher) addClient(client *Client) {
	d.Lock()
	defer d.Unlock()

	room := d.rooms[client.tripId]
	if room == nil {
		room = make(ClientList)
		d.rooms[client.tripId] = room
	}
	room[client] = true
}

func (d *Dispatcher) removeClient(client *Client) {
	d.Lock()
	defer d.Unlock()

	room := d.rooms[client.tripId]
	if _, ok := room[client]; !ok {
		return
	}
	delete(room, client)
	if len(room) == 0 {
		delete(d.rooms, client.tripId)
	}
	client.conn.Close()
}
