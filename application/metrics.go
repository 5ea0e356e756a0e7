package application

const (
	PollOutcomeOK             = "ok"
	PollOutcomeTransportError = "transport_error"
	PollOutcomeEmpty          = "empty"
	PollOutcomeDecodeError    = "decode_error"
	PollOutcomeDiscarded      = "discarded"

	CommandOutcomeOK             = "ok"
	CommandOutcomeNoConnection   = "no_connection"
	CommandOutcomeTransportError = "transport_error"
	CommandOutcomeHTTPError      = "http_error"
)

type Metrics interface {
	ObservePoll(outcome string)
	ObserveCommand(action PumpAction, outcome string)
}

type NopMetrics struct{}

func (NopMetrics) ObservePoll(string) {}

func (NopMetrics) ObserveCommand(PumpAction, string) {}

var _ Metrics = NopMetrics{}
