// Package domain contains the core types of birdcall.
//
// It has no dependencies on infrastructure (HTTP, subprocesses, logging).
//
// # Entities
//
//   - [Endpoint]: a Doorbird address with its HTTP credentials
//   - [Session]: the token the device issues for one audio transmission
//   - [AudioEvent]: the inbound doorbird_audio payload
//   - [Error]: the single error type returned by an upload
package domain
