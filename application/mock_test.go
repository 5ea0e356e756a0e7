package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockTelemetryClient struct {
	mock.Mock
}

func (m *MockTelemetryClient) FetchFeed(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)

	var body []byte
	if b := args.Get(0); b != nil {
		body = b.([]byte)
	}
	return body, args.Error(1)
}

var _ TelemetryClient = &MockTelemetryClient{}

type MockPumpClient struct {
	mock.Mock
}

func (m *MockPumpClient) Send(ctx context.Context, url string) (int, error) {
	args := m.Called(ctx, url)
	return args.Int(0), args.Error(1)
}

var _ PumpClient = &MockPumpClient{}

type MockConnectivity struct {
	mock.Mock
}

func (m *MockConnectivity) IsNetworkAvailable() bool {
	return m.Called().Bool(0)
}

var _ ConnectivityChecker = &MockConnectivity{}

type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	return m.Called(topic, qos, retained, msg).Error(0)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, handler func(msg MQTTMessage)) error {
	return m.Called(topic, qos, handler).Error(0)
}

func (m *MockMQTTClient) Connect() error {
	return m.Called().Error(0)
}

func (m *MockMQTTClient) Disconnect() {
	m.Called()
}

func (m *MockMQTTClient) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *MockMQTTClient) Status() MQTTStatus {
	return m.Called().Get(0).(MQTTStatus)
}

var _ MQTTClient = &MockMQTTClient{}

type testMessage struct {
	topic   string
	payload string
}

func (m testMessage) Topic() string   { return m.topic }
func (m testMessage) Payload() []byte { return []byte(m.payload) }

type fakeTicker struct {
	c chan time.Time

	mu      sync.Mutex
	stopped bool
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{c: make(chan time.Time, 1)}
}

func (f *fakeTicker) C() <-chan time.Time {
	return f.c
}

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// tick never blocks; a tick nobody reads stays in the buffer.
func (f *fakeTicker) tick() {
	select {
	case f.c <- time.Now():
	default:
	}
}

type recordingMetrics struct {
	mu       sync.Mutex
	polls    []string
	commands []string
}

func (r *recordingMetrics) ObservePoll(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls = append(r.polls, outcome)
}

func (r *recordingMetrics) ObserveCommand(action PumpAction, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, action.String()+":"+outcome)
}

func (r *recordingMetrics) pollOutcomes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.polls...)
}

func (r *recordingMetrics) commandOutcomes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.commands...)
}

func startTestLoop(t *testing.T) *MainLoop {
	t.Helper()

	loop := NewMainLoop(MainLoopParams{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = loop.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop
}

// flushLoop returns once every task posted before it has run.
func flushLoop(t *testing.T, loop *MainLoop) {
	t.Helper()

	done := make(chan struct{})
	if !loop.Post(func() { close(done) }) {
		t.Fatal("main loop stopped")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("main loop did not drain")
	}
}
