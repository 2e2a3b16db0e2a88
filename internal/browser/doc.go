// Package browser adapts the scraper engine's session, page, and document
// ports onto headless Chrome via chromedp. Each acquired session is an
// isolated browser process that is terminated on release and never reused.
package browser
