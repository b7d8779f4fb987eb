package room

import (
	"time"

	"github.com/wfunc/intersplice/game"
)

// Broadcaster gives a room its event sink.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	SinkFor(roomID string) game.Sink
	Detach(roomID, connID string)
}

// Metrics is what a room reports about itself.
type Metrics interface {
	RoomOpened()
	RoomClosed()
	CommandHandled(kind string)
	TickObserved(d time.Duration)
	PhaseEntered(phase string)
	Eliminated(cause string)
	GameOver(reason string)
}

type nopMetrics struct{}

func (nopMetrics) RoomOpened()                {}
func (nopMetrics) RoomClosed()                {}
func (nopMetrics) CommandHandled(string)      {}
func (nopMetrics) TickObserved(time.Duration) {}
func (nopMetrics) PhaseEntered(string)        {}
func (nopMetrics) Eliminated(string)          {}
func (nopMetrics) GameOver(string)            {}
