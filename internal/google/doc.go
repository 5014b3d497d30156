// Package google handles OAuth2 credentials for the Google Calendar backend.
//
// Tokens are stored as one JSON file per account by FileTokenProvider. The
// TokenProvider interface lets other token sources be plugged in.
// NewHTTPClient builds an authenticated client and writes refreshed tokens
// back to the store.
package google
