// Package calendar defines the calendar Backend used by the agent's tools and
// provides two implementations.
//
// Client talks to the Google Calendar API through calendar/v3 and an OAuth2
// HTTP client. Store keeps events in a local SQLite database and is meant for
// development and offline use. InstrumentedBackend wraps either one with
// tracing spans and operation metrics.
//
// Unknown event ids are reported with ErrEventNotFound:
//
//	ev, err := backend.MoveEvent(ctx, id, newStart)
//	if errors.Is(err, calendar.ErrEventNotFound) {
//	    // ...
//	}
package calendar
