package adapters

import (
	"regadera/application"

	"github.com/rs/zerolog"
)

// NewLogDisplay renders every display change as a log line.
func NewLogDisplay(log zerolog.Logger) application.DisplayObserver {
	return func(snapshot application.DisplaySnapshot) {
		log.Info().
			Str("humidity", snapshot.Humidity).
			Str("status", snapshot.Status).
			Msg("display updated")
	}
}
