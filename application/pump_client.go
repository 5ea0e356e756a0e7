package application

import "context"

type PumpAction int

const (
	PumpActionActivate PumpAction = iota
	PumpActionDeactivate
)

func (a PumpAction) String() string {
	switch a {
	case PumpActionActivate:
		return "activate"
	case PumpActionDeactivate:
		return "deactivate"
	default:
		return "unknown"
	}
}

func (a PumpAction) SuccessMessage() string {
	if a == PumpActionActivate {
		return "Pump on!"
	}
	return "Pump off!"
}

func (a PumpAction) NoConnectionMessage() string {
	return "No internet connection. Cannot " + a.String() + " the pump."
}

type CommandOutcome struct {
	Action     PumpAction
	Succeeded  bool
	StatusCode int
	Message    string
}

type PumpClient interface {
	// Send issues the command request and returns the HTTP status code.
	// The response body is ignored.
	Send(ctx context.Context, url string) (int, error)
}

type ConnectivityChecker interface {
	IsNetworkAvailable() bool
}
