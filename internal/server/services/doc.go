// Package services contains the server-side business logic: accounts and
// sessions, password resets, the authorization guard, event registrations
// and the event catalogue. Services never lock in process; uniqueness and
// one-shot reset consumption are enforced by the repositories' storage.
package services
