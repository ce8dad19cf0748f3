// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// AdmittedEvent is published after a promotion batch moves at least one
// user from a wait set into the proceed set. It carries enough for
// downstream consumers to log, notify, or feed dashboards without touching
// the queue store.
type AdmittedEvent struct {
    Queue          string   `json:"queue"`
    RequestedCount int64    `json:"requested_count"`
    AllowedCount   int64    `json:"allowed_count"`
    UserIDs        []string `json:"user_ids"`
    AdmittedAt     string   `json:"admitted_at"`
}
