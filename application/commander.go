package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

type CommanderParams struct {
	PumpClient   PumpClient
	Connectivity ConnectivityChecker
	Display      *DisplayState
	Loop         *MainLoop
	Requests     *conc.WaitGroup
	Metrics      Metrics

	ActivateURL   string
	DeactivateURL string

	Log zerolog.Logger
}

func (c *CommanderParams) EnsureDefaults() {
	if c.Metrics == nil {
		c.Metrics = NopMetrics{}
	}

	if c.Requests == nil {
		c.Requests = conc.NewWaitGroup()
	}
}

// Commander turns user events into pump requests. It only ever writes the
// status slot of DisplayState.
type Commander struct {
	params CommanderParams

	log zerolog.Logger
}

func NewCommander(params CommanderParams) (*Commander, error) {
	if params.PumpClient == nil {
		return nil, fmt.Errorf("PumpClient is nil")
	}
	if params.Connectivity == nil {
		return nil, fmt.Errorf("Connectivity is nil")
	}
	if params.Display == nil {
		return nil, fmt.Errorf("Display is nil")
	}
	if params.Loop == nil {
		return nil, fmt.Errorf("Loop is nil")
	}
	if params.ActivateURL == "" || params.DeactivateURL == "" {
		return nil, fmt.Errorf("pump activate and deactivate urls are required")
	}

	params.EnsureDefaults()
	return &Commander{params: params, log: params.Log}, nil
}

func (c *Commander) ActivatePump(ctx context.Context) <-chan CommandOutcome {
	return c.send(ctx, PumpActionActivate)
}

func (c *Commander) DeactivatePump(ctx context.Context) <-chan CommandOutcome {
	return c.send(ctx, PumpActionDeactivate)
}

// Run dispatches action to ActivatePump or DeactivatePump.
func (c *Commander) Run(ctx context.Context, action PumpAction) <-chan CommandOutcome {
	if action == PumpActionActivate {
		return c.ActivatePump(ctx)
	}
	return c.DeactivatePump(ctx)
}

func (c *Commander) url(action PumpAction) string {
	if action == PumpActionActivate {
		return c.params.ActivateURL
	}
	return c.params.DeactivateURL
}

func (c *Commander) send(ctx context.Context, action PumpAction) <-chan CommandOutcome {
	result := make(chan CommandOutcome, 1)
	log := c.log.With().
		Str("request_id", uuid.NewString()).
		Stringer("action", action).
		Logger()

	if !c.params.Connectivity.IsNetworkAvailable() {
		log.Warn().Msg("no network available, command not sent")
		c.params.Requests.Go(func() {
			c.publish(result, CommandOutcome{
				Action:  action,
				Message: action.NoConnectionMessage(),
			}, CommandOutcomeNoConnection)
		})
		return result
	}

	url := c.url(action)
	c.params.Requests.Go(func() {
		status, err := c.params.PumpClient.Send(ctx, url)
		if err != nil {
			log.Error().Err(err).Msg("failed to control the pump")
			c.publish(result, CommandOutcome{
				Action:  action,
				Message: fmt.Sprintf("Error controlling the pump: %v", err),
			}, CommandOutcomeTransportError)
			return
		}

		if status < 200 || status > 299 {
			log.Error().Int("status", status).Msg("pump command rejected")
			c.publish(result, CommandOutcome{
				Action:     action,
				StatusCode: status,
				Message:    fmt.Sprintf("Error sending command: %d", status),
			}, CommandOutcomeHTTPError)
			return
		}

		log.Info().Int("status", status).Msg("pump command sent")
		c.publish(result, CommandOutcome{
			Action:     action,
			Succeeded:  true,
			StatusCode: status,
			Message:    action.SuccessMessage(),
		}, CommandOutcomeOK)
	})

	return result
}

// publish writes the outcome on the main loop and then hands it to result.
// If the loop stops before the write runs, the outcome is delivered anyway.
func (c *Commander) publish(result chan<- CommandOutcome, outcome CommandOutcome, metricOutcome string) {
	c.params.Metrics.ObserveCommand(outcome.Action, metricOutcome)
	defer close(result)

	applied := make(chan struct{})
	posted := c.params.Loop.Post(func() {
		c.params.Display.SetStatus(outcome.Message)
		close(applied)
	})

	if posted {
		select {
		case <-applied:
		case <-c.params.Loop.Done():
			c.log.Debug().Msg("main loop stopped before the status write")
		}
	} else {
		c.log.Debug().Msg("main loop stopped, status not written")
	}

	result <- outcome
}
