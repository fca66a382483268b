// Package room manages room identity and the session lifecycle around it.
//
// A room is created locally (ID and key generated) or joined from a
// shareable locator carrying both. The key never reaches the relay; it
// travels only inside locators and the in-process recovery cache. The
// locator's percent-encoding round trip is load-bearing: a key that skips
// decoding still imports as 32 plausible bytes and then fails every single
// decrypt, so parsing lives here in one place.
package room
