// Package http exposes the coordinator's JSON API: speaker lifecycle
// management, the published date pool, visit agendas with iCalendar
// export, account management, and the unauthenticated invitation
// response surface.
package http
