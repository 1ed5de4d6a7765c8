// Package server provides the HTTP server for the countboard dashboard and API.
//
// This package is internal to countboard and handles all HTTP concerns:
//
//   - Dashboard serving: Renders the embedded page template at "/"
//   - REST API: JSON view at "/api/status", manual refresh at "/api/refresh"
//   - Server-Sent Events: Real-time updates at "/api/sse"
//   - Navigation: "/open/{id}" and "/preview" redirect to external destinations
//
// Every response is a pure function of the store's current snapshot; the
// server keeps no state of its own.
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
package server
