package pgdb

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoNotificationReceiver is returned by NotificationHandler.Run when the
// transport does not implement NotificationReceiver.
var ErrNoNotificationReceiver = errors.New("transport does not deliver notifications")

// Listen starts listening on a notification channel.
func (d *DB) Listen(channel string) error {
	return d.run("LISTEN " + d.escapeIdentifier(channel))
}

// Unlisten stops listening on a notification channel.
func (d *DB) Unlisten(channel string) error {
	return d.run("UNLISTEN " + d.escapeIdentifier(channel))
}

// Notify generates a notification on a channel, with an optional payload.
func (d *DB) Notify(channel string, payload ...string) error {
	query := "NOTIFY " + d.escapeIdentifier(channel)
	if len(payload) > 0 && payload[0] != "" {
		query += ", '" + strings.Replace(payload[0], "'", "''", -1) + "'"
	}
	return d.run(query)
}

// NotificationHandler is a client-side asynchronous notification handler.
// It listens on an event channel and a stop-event channel and invokes a
// callback for every notification received; a notification on the stop
// channel ends the loop.
//
// The handler uses its DB's connection; if the loop runs in another
// goroutine, database operations in the main goroutine must use a separate
// DB instance.
type NotificationHandler struct {
	db        *DB
	event     string
	stopEvent string
	callback  func(*Notification)
	timeout   time.Duration
	listening bool
}

// NotificationHandler returns a handler that will run the given callback.
// The callback receives nil when the timeout is reached; a zero timeout
// means the handler never times out. If stopEvent is empty, the event name
// prefixed with "stop_" is used.
func (d *DB) NotificationHandler(event string, callback func(*Notification), timeout time.Duration, stopEvent string) *NotificationHandler {
	if stopEvent == "" {
		stopEvent = "stop_" + event
	}
	return &NotificationHandler{
		db:        d,
		event:     event,
		stopEvent: stopEvent,
		callback:  callback,
		timeout:   timeout,
	}
}

// Listen starts listening for the event and the stop event.
func (h *NotificationHandler) Listen() error {
	if h.listening {
		return nil
	}
	if err := h.db.Listen(h.event); err != nil {
		return err
	}
	if err := h.db.Listen(h.stopEvent); err != nil {
		return err
	}
	h.listening = true
	return nil
}

// Unlisten stops listening for the event and the stop event.
func (h *NotificationHandler) Unlisten() error {
	if !h.listening {
		return nil
	}
	if err := h.db.Unlisten(h.event); err != nil {
		return err
	}
	if err := h.db.Unlisten(h.stopEvent); err != nil {
		return err
	}
	h.listening = false
	return nil
}

// Notify generates a notification for this handler's event, or for its stop
// event when stop is set, causing a running handler to end its loop.
//
// If the handler is running in another goroutine, call Notify on a DB with
// its own connection instead.
func (h *NotificationHandler) Notify(stop bool, payload string) error {
	event := h.event
	if stop {
		event = h.stopEvent
	}
	return h.db.Notify(event, payload)
}

// Run listens for notifications on the event and stop event channels and
// invokes the callback for each of them. It returns after a stop event is
// received, or after the timeout elapsed with no notification, in which
// case the callback is invoked once with nil.
func (h *NotificationHandler) Run() error {
	receiver, ok := h.db.conn.(NotificationReceiver)
	if !ok {
		return ErrNoNotificationReceiver
	}
	if err := h.Listen(); err != nil {
		return err
	}
	var timeout <-chan time.Time
	for h.listening {
		if h.timeout > 0 {
			timeout = time.After(h.timeout)
		}
		select {
		case notice, open := <-receiver.Notifications():
			if !open {
				return h.Unlisten()
			}
			if notice.Channel != h.event && notice.Channel != h.stopEvent {
				h.Unlisten()
				return fmt.Errorf("listening for %q and %q, but notified of %q",
					h.event, h.stopEvent, notice.Channel)
			}
			if notice.Channel == h.stopEvent {
				if err := h.Unlisten(); err != nil {
					return err
				}
			}
			h.callback(&notice)
		case <-timeout:
			if err := h.Unlisten(); err != nil {
				return err
			}
			h.callback(nil)
		}
	}
	return nil
}
