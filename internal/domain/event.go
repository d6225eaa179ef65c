package domain

// EventDoorbirdAudio is the name of the event that triggers an upload.
const EventDoorbirdAudio = "doorbird_audio"

// AudioEvent is the payload of a doorbird_audio event.
type AudioEvent struct {
	DeviceIP string `json:"device_ip"`
	Username string `json:"username"`
	Password string `json:"password"`
	AudioURL string `json:"audio_url"`

	// Device optionally names a registry entry that fills empty fields.
	Device string `json:"device,omitempty"`
}

// Endpoint returns the device endpoint carried by the event.
func (e AudioEvent) Endpoint() Endpoint {
	return Endpoint{
		Address:  e.DeviceIP,
		Username: e.Username,
		Password: e.Password,
	}
}

// Merge fills the empty endpoint fields of the event from base.
func (e AudioEvent) Merge(base Endpoint) AudioEvent {
	if e.DeviceIP == "" {
		e.DeviceIP = base.Address
	}
	if e.Username == "" {
		e.Username = base.Username
	}
	if e.Password == "" {
		e.Password = base.Password
	}
	return e
}
