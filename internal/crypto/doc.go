// Package crypto exposes the symmetric primitives used by chat-app.
//
// Contents
//
//   - Opaque AES-256 key handles with generation, import/export and
//     best-effort destruction (Generate, Import, Export, Destroy)
//   - AES-GCM sealing and opening of message payloads (Encrypt, Decrypt)
//   - Password stretching for the credential vault (DeriveKey, GenerateSalt)
//   - Short key fingerprints for out-of-band comparison (Fingerprint)
//
// # Notes
//
// Key material never leaves this package except through Export, which
// returns the base64 portable form used in room locators. All randomness
// flows through RandReader so tests can exercise entropy failure. Callers
// should treat Key handles as sensitive and Destroy them when a session
// ends to reduce their lifetime in memory.
package crypto
