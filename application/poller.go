package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

const (
	HumidityConnectionError = "Connection error while fetching data"

	StatusDataUpdated     = "Data updated successfully."
	StatusEmptyResponse   = "Error: empty response from server."
	StatusProcessingError = "Error processing humidity data."
)

var (
	ErrPollerRunning   = fmt.Errorf("poller already running")
	ErrInvalidInterval = fmt.Errorf("poll interval must be positive")
)

func HumidityMessage(value string) string {
	return fmt.Sprintf("Humidity: %s%%", value)
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.t.C
}

func (t timeTicker) Stop() {
	t.t.Stop()
}

func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

type PollerParams struct {
	TelemetryClient TelemetryClient
	Display         *DisplayState
	Loop            *MainLoop
	Requests        *conc.WaitGroup
	Metrics         Metrics

	NewTickerFunc func(d time.Duration) Ticker

	Log zerolog.Logger
}

func (p *PollerParams) EnsureDefaults() {
	if p.Metrics == nil {
		p.Metrics = NopMetrics{}
	}

	if p.NewTickerFunc == nil {
		p.NewTickerFunc = NewTimeTicker
	}

	if p.Requests == nil {
		p.Requests = conc.NewWaitGroup()
	}
}

// Poller fetches telemetry on a fixed interval and writes the result to
// DisplayState.
type Poller struct {
	params PollerParams

	mu         sync.Mutex
	running    bool
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}

	log zerolog.Logger
}

func NewPoller(params PollerParams) (*Poller, error) {
	if params.TelemetryClient == nil {
		return nil, fmt.Errorf("TelemetryClient is nil")
	}
	if params.Display == nil {
		return nil, fmt.Errorf("Display is nil")
	}
	if params.Loop == nil {
		return nil, fmt.Errorf("Loop is nil")
	}

	params.EnsureDefaults()
	return &Poller{params: params, log: params.Log}, nil
}

// Start runs the first cycle right away and then one per tick of interval.
// Requests use ctx, so Stop does not abort a request already in flight.
func (p *Poller) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPollerRunning
	}

	p.generation++
	p.running = true

	scheduleCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.schedule(scheduleCtx, ctx, p.generation, p.params.NewTickerFunc(interval), p.done)

	p.log.Info().Dur("interval", interval).Msg("poller started")
	return nil
}

// Stop prevents any further cycle. Results of cycles still in flight are
// discarded. Once Stop returns DisplayState is no longer written by this run.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}

	p.running = false
	p.cancel()
	done := p.done
	p.mu.Unlock()

	<-done
	p.log.Info().Msg("poller stopped")
}

func (p *Poller) schedule(scheduleCtx, requestCtx context.Context, gen uint64, ticker Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	p.cycle(requestCtx, gen)

	for {
		select {
		case <-scheduleCtx.Done():
			return
		case <-ticker.C():
			if scheduleCtx.Err() != nil {
				return
			}
			p.cycle(requestCtx, gen)
		}
	}
}

func (p *Poller) cycle(ctx context.Context, gen uint64) {
	if !p.isCurrent(gen) {
		return
	}

	p.params.Requests.Go(func() {
		body, err := p.params.TelemetryClient.FetchFeed(ctx)

		posted := p.params.Loop.Post(func() {
			p.apply(gen, body, err)
		})
		if !posted {
			p.log.Debug().Msg("main loop stopped, dropping poll result")
		}
	})
}

func (p *Poller) isCurrent(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && p.generation == gen
}

// apply runs on the main loop. The poller lock is held for the write so a
// concurrent Stop cannot interleave with it.
func (p *Poller) apply(gen uint64, body []byte, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running || p.generation != gen {
		p.log.Debug().Msg("poller stopped, discarding result")
		p.params.Metrics.ObservePoll(PollOutcomeDiscarded)
		return
	}

	display := p.params.Display

	switch {
	case err != nil:
		p.log.Error().Err(err).Msg("failed to fetch telemetry")
		display.SetHumidityAndStatus(HumidityConnectionError, "Error: "+err.Error())
		p.params.Metrics.ObservePoll(PollOutcomeTransportError)

	case len(body) == 0:
		p.log.Warn().Msg("empty telemetry response")
		display.SetStatus(StatusEmptyResponse)
		p.params.Metrics.ObservePoll(PollOutcomeEmpty)

	default:
		reading, perr := ParseTelemetry(body)
		if perr == nil && !reading.HasValue() {
			perr = ErrMissingHumidity
		}
		if perr != nil {
			p.log.Error().Err(perr).Msg("failed to decode telemetry")
			display.SetStatus(StatusProcessingError)
			p.params.Metrics.ObservePoll(PollOutcomeDecodeError)
			return
		}

		p.log.Debug().Str("humidity", *reading.Value).Msg("telemetry updated")
		display.SetHumidityAndStatus(HumidityMessage(*reading.Value), StatusDataUpdated)
		p.params.Metrics.ObservePoll(PollOutcomeOK)
	}
}
