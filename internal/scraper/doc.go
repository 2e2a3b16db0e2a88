// Package scraper implements the profile scraping engine: session lifecycle
// orchestration, lazy-content navigation, and fallback-chain field extraction.
// The package defines the ports (SessionManager, Page, DocumentQuerier) that
// the browser adapters in internal/browser implement, so every policy in here
// is testable without a real browser process.
package scraper
