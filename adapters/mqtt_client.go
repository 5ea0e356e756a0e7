package adapters

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"regadera/application"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	MQTTDefaultConnectTimeout   = 30 * time.Second
	MQTTDefaultPublishTimeout   = 5 * time.Second
	MQTTDefaultSubscribeTimeout = 5 * time.Second
	MQTTDisconnectQuiesce       = 250
)

var (
	ErrMQTTNotConnected     = fmt.Errorf("not connected")
	ErrMQTTConnectTimeout   = fmt.Errorf("connect timeout")
	ErrMQTTPublishTimeout   = fmt.Errorf("publish timeout")
	ErrMQTTSubscribeTimeout = fmt.Errorf("subscribe timeout")
)

type MQTTClientParams struct {
	ClientID string
	Username string
	Password string
	MQTTUrl  string

	ConnectTimeout   time.Duration
	PublishTimeout   time.Duration
	SubscribeTimeout time.Duration

	NewClientFunc func(options *mqtt.ClientOptions) mqtt.Client

	Log zerolog.Logger
}

func (m *MQTTClientParams) EnsureDefaults() {
	if m.ClientID == "" {
		m.ClientID = "regadera-" + uuid.NewString()[:8]
	}

	if m.ConnectTimeout == 0 {
		m.ConnectTimeout = MQTTDefaultConnectTimeout
	}

	if m.PublishTimeout == 0 {
		m.PublishTimeout = MQTTDefaultPublishTimeout
	}

	if m.SubscribeTimeout == 0 {
		m.SubscribeTimeout = MQTTDefaultSubscribeTimeout
	}

	if m.NewClientFunc == nil {
		m.NewClientFunc = mqtt.NewClient
	}
}

type mqttSubscription struct {
	qos     byte
	handler mqtt.MessageHandler
}

type MQTTClient struct {
	params MQTTClientParams

	client mqtt.Client

	// subscriptions are re-issued on every reconnect, the broker drops them
	// with the clean session.
	subscriptionsMu sync.Mutex
	subscriptions   map[string]mqttSubscription

	connected          uint64
	msgCount           uint64
	msgCountUpdateTime atomic.Pointer[time.Time]

	log zerolog.Logger
}

func NewMQTTClient(params MQTTClientParams) *MQTTClient {
	params.EnsureDefaults()

	m := &MQTTClient{
		params:        params,
		subscriptions: make(map[string]mqttSubscription),
		log:           params.Log,
	}
	m.client = m.newMqttClient()

	t := time.Unix(0, 0)
	m.msgCountUpdateTime.Store(&t)

	return m
}

func (m *MQTTClient) Connect() error {
	if m.IsConnected() {
		return nil
	}

	token := m.client.Connect()
	if !token.WaitTimeout(m.params.ConnectTimeout) {
		return ErrMQTTConnectTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}

	atomic.StoreUint64(&m.connected, 1)
	return nil
}

func (m *MQTTClient) Disconnect() {
	m.client.Disconnect(MQTTDisconnectQuiesce)
	atomic.StoreUint64(&m.connected, 0)
	m.log.Info().Msg("disconnected")
}

func (m *MQTTClient) IsConnected() bool {
	return atomic.LoadUint64(&m.connected) == 1
}

func (m *MQTTClient) Status() application.MQTTStatus {
	return application.MQTTStatus{
		MessageCount:      atomic.LoadUint64(&m.msgCount),
		LastTimePublished: *m.msgCountUpdateTime.Load(),
		Connected:         m.IsConnected(),
	}
}

func (m *MQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	if !m.IsConnected() {
		return ErrMQTTNotConnected
	}

	token := m.client.Publish(topic, qos, retained, msg)
	if !token.WaitTimeout(m.params.PublishTimeout) {
		return ErrMQTTPublishTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}

	t := time.Now()
	m.msgCountUpdateTime.Store(&t)
	atomic.AddUint64(&m.msgCount, 1)
	return nil
}

func (m *MQTTClient) Subscribe(topic string, qos byte, handler func(msg application.MQTTMessage)) error {
	callback := func(client mqtt.Client, msg mqtt.Message) {
		handler(msg)
	}

	if err := m.subscribe(m.client, topic, qos, callback); err != nil {
		return err
	}

	m.subscriptionsMu.Lock()
	m.subscriptions[topic] = mqttSubscription{qos: qos, handler: callback}
	m.subscriptionsMu.Unlock()
	return nil
}

func (m *MQTTClient) subscribe(client mqtt.Client, topic string, qos byte, callback mqtt.MessageHandler) error {
	token := client.Subscribe(topic, qos, callback)
	if !token.WaitTimeout(m.params.SubscribeTimeout) {
		return ErrMQTTSubscribeTimeout
	}
	return token.Error()
}

func (m *MQTTClient) resubscribe(client mqtt.Client) {
	m.subscriptionsMu.Lock()
	subscriptions := make(map[string]mqttSubscription, len(m.subscriptions))
	for topic, sub := range m.subscriptions {
		subscriptions[topic] = sub
	}
	m.subscriptionsMu.Unlock()

	for topic, sub := range subscriptions {
		if err := m.subscribe(client, topic, sub.qos, sub.handler); err != nil {
			m.log.Error().Err(err).Str("topic", topic).Msg("failed to resubscribe")
			continue
		}
		m.log.Info().Str("topic", topic).Msg("resubscribed")
	}
}

func (m *MQTTClient) PublishHandler(client mqtt.Client, msg mqtt.Message) {
	m.log.Debug().Str("topic", msg.Topic()).Msg("unrouted message")
}

func (m *MQTTClient) OnConnect(client mqtt.Client) {
	m.log.Info().Msgf("connected")
	atomic.StoreUint64(&m.connected, 1)

	m.resubscribe(client)
}

func (m *MQTTClient) OnConnectionLost(client mqtt.Client, err error) {
	m.log.Info().Msgf("connect lost: %v", err)
	atomic.StoreUint64(&m.connected, 0)
}

func (m *MQTTClient) newMqttClient() mqtt.Client {
	opts := mqtt.NewClientOptions()

	opts.AddBroker(m.params.MQTTUrl)
	opts.SetClientID(m.params.ClientID)
	opts.SetUsername(m.params.Username)
	opts.SetPassword(m.params.Password)
	opts.SetAutoReconnect(true)

	opts.SetDefaultPublishHandler(m.PublishHandler)
	opts.OnConnect = m.OnConnect
	opts.OnConnectionLost = m.OnConnectionLost

	return m.params.NewClientFunc(opts)
}

var _ application.MQTTClient = &MQTTClient{}
