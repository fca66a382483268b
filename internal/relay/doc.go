// Package relay implements the client side of the relay server's two
// surfaces.
//
// The relay is an untrusted fan-out service: it stores and forwards
// ciphertext without ever holding a key. This package offers a concrete
// HTTP client for the read-only endpoints (room metadata, message history,
// liveness) and a websocket dialer for the live room attachment.
//
// All requests accept a context for cancellation and deadlines. The HTTP
// client retries transient failures with a short exponential backoff;
// websocket failures are never retried here, because reconnecting is a
// session-level decision.
package relay
