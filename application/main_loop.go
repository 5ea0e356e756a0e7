package application

import (
	"context"

	"github.com/rs/zerolog"
)

const MainLoopDefaultQueueSize = 64

type MainLoopParams struct {
	QueueSize int

	Log zerolog.Logger
}

func (m *MainLoopParams) EnsureDefaults() {
	if m.QueueSize <= 0 {
		m.QueueSize = MainLoopDefaultQueueSize
	}
}

// MainLoop runs posted tasks one at a time on a single goroutine. Everything
// that writes DisplayState goes through it.
type MainLoop struct {
	tasks chan func()
	done  chan struct{}

	log zerolog.Logger
}

func NewMainLoop(params MainLoopParams) *MainLoop {
	params.EnsureDefaults()

	return &MainLoop{
		tasks: make(chan func(), params.QueueSize),
		done:  make(chan struct{}),
		log:   params.Log,
	}
}

// Post enqueues fn. It reports false if the loop has already stopped.
func (l *MainLoop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Run executes tasks until ctx is done. It must be called once.
func (l *MainLoop) Run(ctx context.Context) error {
	defer close(l.done)

	l.log.Debug().Msg("main loop started")
	defer l.log.Debug().Msg("main loop stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.tasks:
			fn()
		}
	}
}

func (l *MainLoop) Done() <-chan struct{} {
	return l.done
}
