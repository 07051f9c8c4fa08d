package models

import "time"

// Notification is a reminder accepted by the scheduler and not yet delivered
// (or, for repeating ones, not yet cancelled).
type Notification struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Body     string        `json:"body"`
	FireAt   time.Time     `json:"fire_at"`
	Interval time.Duration `json:"interval,omitempty"`
	Repeats  bool          `json:"repeats"`
	Created  time.Time     `json:"created_at"`
}

// Trigger describes when a notification fires. The zero value fires
// immediately; Repeat makes it recurring every Repeat after the first fire.
type Trigger struct {
	After  time.Duration `json:"after,omitempty"`
	Repeat time.Duration `json:"repeat,omitempty"`
}

// NotificationRequest is what callers hand to a scheduler.
type NotificationRequest struct {
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	Trigger Trigger `json:"trigger"`
}
