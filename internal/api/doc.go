// Package api exposes the HTTP interface for the scraper service. It is the
// thin route layer in front of the engine: it enqueues scrape jobs, persists
// their outcomes through the profile store, and serves an offline extraction
// endpoint over static HTML. Quota and billing enforcement live with the
// caller, not here.
package api
