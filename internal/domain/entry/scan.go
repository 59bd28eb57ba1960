package entry

import (
	"encoding/json"
	"regexp"
	"time"
)

// Device is the coarse class of the client that scanned a code.
type Device string

const (
	DeviceMobile  Device = "Mobile"
	DeviceDesktop Device = "Desktop"
)

var mobileSignature = regexp.MustCompile(`(?i)Mobi|Android`)

// ClassifyDevice maps a User-Agent header to a device class.
func ClassifyDevice(userAgent string) Device {
	if mobileSignature.MatchString(userAgent) {
		return DeviceMobile
	}
	return DeviceDesktop
}

// ScanEvent is one entry of an append-only scan log.
type ScanEvent struct {
	Timestamp time.Time
	Device    Device
}

type scanEventJSON struct {
	Timestamp int64  `json:"timestamp"`
	Device    Device `json:"device"`
}

func (s ScanEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(scanEventJSON{Timestamp: s.Timestamp.UnixMilli(), Device: s.Device})
}

func (s *ScanEvent) UnmarshalJSON(data []byte) error {
	var w scanEventJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Timestamp = time.UnixMilli(w.Timestamp).UTC()
	s.Device = w.Device
	return nil
}
