// Package ports defines the interfaces that connect the application layer
// (internal/app) to infrastructure adapters (internal/adapters).
//
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//   - [DeviceClient]: session and audio transmission against a Doorbird
//   - [Transcoder]: converts a source audio resource to the device codec
//
// The application layer depends only on these interfaces, so the upload
// pipeline is tested with fakes instead of a device and an ffmpeg binary.
package ports
