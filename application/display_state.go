package application

import (
	"sync"
	"time"
)

type DisplaySnapshot struct {
	Humidity  string    `json:"humidity"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayObserver is called on the main loop after each write. It must not
// block.
type DisplayObserver func(snapshot DisplaySnapshot)

// DisplayState holds the humidity and status slots. Writers must run on the
// MainLoop; Snapshot is safe from any goroutine.
type DisplayState struct {
	mu       sync.RWMutex
	snapshot DisplaySnapshot

	observers []DisplayObserver
}

func NewDisplayState() *DisplayState {
	return &DisplayState{}
}

// Observe registers fn. Register observers before the main loop starts.
func (d *DisplayState) Observe(fn DisplayObserver) {
	d.observers = append(d.observers, fn)
}

func (d *DisplayState) Snapshot() DisplaySnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot
}

func (d *DisplayState) SetHumidity(msg string) {
	d.update(func(s *DisplaySnapshot) { s.Humidity = msg })
}

func (d *DisplayState) SetStatus(msg string) {
	d.update(func(s *DisplaySnapshot) { s.Status = msg })
}

func (d *DisplayState) SetHumidityAndStatus(humidity, status string) {
	d.update(func(s *DisplaySnapshot) {
		s.Humidity = humidity
		s.Status = status
	})
}

func (d *DisplayState) update(fn func(s *DisplaySnapshot)) {
	d.mu.Lock()
	fn(&d.snapshot)
	d.snapshot.UpdatedAt = time.Now()
	snapshot := d.snapshot
	d.mu.Unlock()

	for _, observer := range d.observers {
		observer(snapshot)
	}
}
