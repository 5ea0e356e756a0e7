package main

import (
	"time"

	"github.com/urfave/cli/v2"
)

var FlagLogLevel = &cli.StringFlag{
	Name:     "log-level",
	EnvVars:  []string{"LOG_LEVEL"},
	Value:    "info",
	Required: false,
}

var FlagLogWriter = &cli.StringFlag{
	Name:     "log-writer",
	Usage:    "one of: [console, json]",
	EnvVars:  []string{"LOG_WRITER"},
	Value:    "console",
	Required: false,
}

var FlagTelemetryURL = &cli.StringFlag{
	Name:     "telemetry-url",
	Usage:    "thingspeak channel feed url",
	EnvVars:  []string{"TELEMETRY_URL"},
	Value:    "https://api.thingspeak.com/channels/2788742/feeds.json?results=1",
	Required: false,
}

var FlagActivateURL = &cli.StringFlag{
	Name:     "activate-url",
	Usage:    "pump on update url, including api key",
	EnvVars:  []string{"PUMP_ACTIVATE_URL"},
	Required: true,
}

var FlagDeactivateURL = &cli.StringFlag{
	Name:     "deactivate-url",
	Usage:    "pump off update url, including api key",
	EnvVars:  []string{"PUMP_DEACTIVATE_URL"},
	Required: true,
}

var FlagPollIntervalMs = &cli.IntFlag{
	Name:     "poll-interval-ms",
	EnvVars:  []string{"POLL_INTERVAL_MS"},
	Value:    5000,
	Required: false,
}

var FlagRequestTimeout = &cli.DurationFlag{
	Name:     "request-timeout",
	EnvVars:  []string{"REQUEST_TIMEOUT"},
	Value:    10 * time.Second,
	Required: false,
}

var FlagAssumeOnline = &cli.BoolFlag{
	Name:     "assume-online",
	Usage:    "skip the network interface check before pump commands",
	EnvVars:  []string{"ASSUME_ONLINE"},
	Required: false,
}

var FlagInteractive = &cli.BoolFlag{
	Name:     "interactive",
	Usage:    "read on/off pump commands from stdin",
	EnvVars:  []string{"INTERACTIVE"},
	Required: false,
}

var FlagMetricsAddr = &cli.StringFlag{
	Name:     "metrics-addr",
	Usage:    "listen address for /metrics, disabled when empty",
	EnvVars:  []string{"METRICS_ADDR"},
	Required: false,
}

var FlagMQTTUrl = &cli.StringFlag{
	Name:     "mqtt-url",
	Usage:    "tcp://broker:port, mqtt is disabled when empty",
	EnvVars:  []string{"MQTT_URL"},
	Required: false,
}

var FlagMQTTClientID = &cli.StringFlag{
	Name:     "mqtt-client-id",
	EnvVars:  []string{"MQTT_CLIENT_ID"},
	Required: false,
}

var FlagMQTTUsername = &cli.StringFlag{
	Name:     "mqtt-username",
	EnvVars:  []string{"MQTT_USERNAME"},
	Required: false,
}

var FlagMQTTPassword = &cli.StringFlag{
	Name:     "mqtt-password",
	EnvVars:  []string{"MQTT_PASSWORD"},
	Required: false,
}

var FlagMQTTTopic = &cli.StringFlag{
	Name:     "mqtt-topic",
	EnvVars:  []string{"MQTT_TOPIC"},
	Value:    "regadera",
	Required: false,
}
