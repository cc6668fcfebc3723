// Package teamiq is the Go client for the TeamIQ API. It carries the
// session machinery the dashboard builds on: a token store, an unverified
// claims decoder, an authenticated request pipeline with a single
// refresh-and-retry on 401, a session controller, and a role-based route
// guard.
package teamiq
