package application

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPollInterval   = 5 * time.Second
	DefaultReportInterval = 30 * time.Second
)

// CommandSource delivers user-triggered pump events until ctx is done.
type CommandSource interface {
	Listen(ctx context.Context, dispatch func(ctx context.Context, action PumpAction)) error
}

// ParsePumpAction maps a user command word to an action.
func ParsePumpAction(s string) (PumpAction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "activate", "1":
		return PumpActionActivate, true
	case "off", "deactivate", "0":
		return PumpActionDeactivate, true
	default:
		return 0, false
	}
}

type PumpControlService interface {
	Run(ctx context.Context) error
}

type PumpControlServiceParams struct {
	TelemetryClient TelemetryClient
	PumpClient      PumpClient
	Connectivity    ConnectivityChecker
	Metrics         Metrics

	// MQTTClient is optional. When set the display is mirrored to
	// MQTTTopic/display and commands are read from MQTTTopic/pump/set.
	MQTTClient MQTTClient
	MQTTTopic  string

	CommandSources   []CommandSource
	DisplayObservers []DisplayObserver

	ActivateURL    string
	DeactivateURL  string
	PollInterval   time.Duration
	ReportInterval time.Duration

	Log zerolog.Logger
}

func (p *PumpControlServiceParams) EnsureDefaults() {
	if p.PollInterval == 0 {
		p.PollInterval = DefaultPollInterval
	}

	if p.ReportInterval <= 0 {
		p.ReportInterval = DefaultReportInterval
	}

	if p.Metrics == nil {
		p.Metrics = NopMetrics{}
	}

	if p.MQTTTopic == "" {
		p.MQTTTopic = "regadera"
	}
}

type pumpControlService struct {
	params PumpControlServiceParams

	display   *DisplayState
	loop      *MainLoop
	requests  *conc.WaitGroup
	poller    *Poller
	commander *Commander

	log zerolog.Logger
}

func NewPumpControlService(params PumpControlServiceParams) (PumpControlService, error) {
	params.EnsureDefaults()

	if params.PollInterval < 0 {
		return nil, ErrInvalidInterval
	}

	s := &pumpControlService{
		params:   params,
		display:  NewDisplayState(),
		requests: conc.NewWaitGroup(),
		log:      params.Log,
	}

	s.loop = NewMainLoop(MainLoopParams{Log: params.Log.With().Str("module", "main-loop").Logger()})

	var err error
	s.poller, err = NewPoller(PollerParams{
		TelemetryClient: params.TelemetryClient,
		Display:         s.display,
		Loop:            s.loop,
		Requests:        s.requests,
		Metrics:         params.Metrics,
		Log:             params.Log.With().Str("module", "poller").Logger(),
	})
	if err != nil {
		return nil, err
	}

	s.commander, err = NewCommander(CommanderParams{
		PumpClient:    params.PumpClient,
		Connectivity:  params.Connectivity,
		Display:       s.display,
		Loop:          s.loop,
		Requests:      s.requests,
		Metrics:       params.Metrics,
		ActivateURL:   params.ActivateURL,
		DeactivateURL: params.DeactivateURL,
		Log:           params.Log.With().Str("module", "commander").Logger(),
	})
	if err != nil {
		return nil, err
	}

	for _, observer := range params.DisplayObservers {
		s.display.Observe(observer)
	}
	if params.MQTTClient != nil {
		s.display.Observe(s.mirrorDisplay)
	}

	return s, nil
}

func (s *pumpControlService) Run(ctx context.Context) error {
	if s.params.MQTTClient != nil {
		if err := s.startMQTT(ctx); err != nil {
			return err
		}
		defer s.params.MQTTClient.Disconnect()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.loop.Run(gctx)
	})

	g.Go(func() error {
		if err := s.poller.Start(gctx, s.params.PollInterval); err != nil {
			return err
		}

		<-gctx.Done()
		s.poller.Stop()
		return nil
	})

	if s.params.MQTTClient != nil {
		g.Go(func() error {
			s.report(gctx)
			return nil
		})
	}

	for _, source := range s.params.CommandSources {
		source := source
		g.Go(func() error {
			return source.Listen(gctx, s.dispatch)
		})
	}

	err := g.Wait()

	if r := s.requests.WaitAndRecover(); r != nil {
		s.log.Error().Interface("panic", r.Value).Msg("request goroutine panicked")
	}

	return err
}

func (s *pumpControlService) dispatch(ctx context.Context, action PumpAction) {
	s.commander.Run(ctx, action)
}

func (s *pumpControlService) displayTopic() string {
	return path.Join(s.params.MQTTTopic, "display")
}

func (s *pumpControlService) commandTopic() string {
	return path.Join(s.params.MQTTTopic, "pump", "set")
}

func (s *pumpControlService) startMQTT(ctx context.Context) error {
	client := s.params.MQTTClient

	if err := client.Connect(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	err := client.Subscribe(s.commandTopic(), 0, func(msg MQTTMessage) {
		action, ok := ParsePumpAction(string(msg.Payload()))
		if !ok {
			s.log.Warn().Str("topic", msg.Topic()).Bytes("payload", msg.Payload()).Msg("unknown pump command")
			return
		}
		s.dispatch(ctx, action)
	})
	if err != nil {
		client.Disconnect()
		return fmt.Errorf("mqtt subscribe: %w", err)
	}

	s.log.Info().Msgf("listening for pump commands on topic: %s", s.commandTopic())
	return nil
}

// report logs mqtt publish throughput until ctx is done.
func (s *pumpControlService) report(ctx context.Context) {
	client := s.params.MQTTClient

	ticker := time.NewTicker(s.params.ReportInterval)
	defer ticker.Stop()

	lastStatus := client.Status()

ReporterLoop:
	for {
		select {
		case <-ctx.Done():
			break ReporterLoop
		case <-ticker.C:
			newStatus := client.Status()
			msgCountDiff := newStatus.MessageCount - lastStatus.MessageCount
			msgPerMin := float64(msgCountDiff) / s.params.ReportInterval.Minutes()

			s.log.Info().
				Float64("msg_per_min", msgPerMin).
				Bool("is_connected", newStatus.Connected).
				Time("last_time_published", newStatus.LastTimePublished).
				Msg("publish report")

			lastStatus = newStatus
		}
	}
}

// mirrorDisplay runs on the main loop, so the publish itself is handed off.
func (s *pumpControlService) mirrorDisplay(snapshot DisplaySnapshot) {
	s.requests.Go(func() {
		payload, err := json.Marshal(snapshot)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to encode display snapshot")
			return
		}

		if err := s.params.MQTTClient.Publish(s.displayTopic(), 0, true, payload); err != nil {
			s.log.Warn().Err(err).Msg("failed to mirror display to mqtt")
		}
	})
}
