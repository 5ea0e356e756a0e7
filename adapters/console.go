package adapters

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"regadera/application"

	"github.com/rs/zerolog"
)

type ConsoleCommandsParams struct {
	Input io.Reader

	Log zerolog.Logger
}

// ConsoleCommands reads one pump command per line from Input.
type ConsoleCommands struct {
	input io.Reader

	log zerolog.Logger
}

func NewConsoleCommands(params ConsoleCommandsParams) (*ConsoleCommands, error) {
	if params.Input == nil {
		return nil, fmt.Errorf("input is nil")
	}
	return &ConsoleCommands{input: params.Input, log: params.Log}, nil
}

// Listen returns when ctx is done or the input is exhausted. A read error,
// such as an over-long line, ends the console source but not the service.
// A blocked read is left behind on cancellation.
func (c *ConsoleCommands) Listen(ctx context.Context, dispatch func(ctx context.Context, action application.PumpAction)) error {
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(c.input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errs <- nil
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-errs; err != nil {
					c.log.Error().Err(err).Msg("console input stopped")
				}
				return nil
			}

			if strings.TrimSpace(line) == "" {
				continue
			}

			action, ok := application.ParsePumpAction(line)
			if !ok {
				c.log.Warn().Str("input", line).Msg("unknown command, use on or off")
				continue
			}

			dispatch(ctx, action)
		}
	}
}

var _ application.CommandSource = &ConsoleCommands{}
