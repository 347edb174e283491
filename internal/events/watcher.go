package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Invalidator drops cached state. *query.Store satisfies it.
type Invalidator interface {
	Invalidate()
}

// Watcher invalidates Target whenever a message arrives on Topic. Bursts of
// messages closer together than Debounce collapse into one invalidation.
type Watcher struct {
	Sub      Subscriber
	Topic    string // defaults to TopicAll
	Target   Invalidator
	Debounce time.Duration
	// OnChange, if set, runs after each invalidation with the last message
	// of the burst.
	OnChange func(ctx context.Context, msg Message)
	Logger   *slog.Logger
}

// Run subscribes and processes messages until ctx is done or the
// subscription channel closes. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if w.Sub == nil || w.Target == nil {
		return errors.New("watcher needs a subscriber and a target")
	}
	log := w.Logger
	if log == nil {
		log = slog.Default()
	}
	topic := w.Topic
	if topic == "" {
		topic = TopicAll
	}

	ch, cancel, err := w.Sub.Subscribe(topic)
	if err != nil {
		return err
	}
	defer cancel()
	log.Info("watching for changes", "topic", topic, "debounce", w.Debounce)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending Message
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	fire := func(msg Message) {
		w.Target.Invalidate()
		log.Debug("cache invalidated", "subject", msg.Subject)
		if w.OnChange != nil {
			w.OnChange(ctx, msg)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if w.Debounce <= 0 {
				fire(msg)
				continue
			}
			pending = msg
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			fire(pending)
		}
	}
}
