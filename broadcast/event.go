package broadcast

import (
	"encoding/json"
	"time"

	"github.com/arloliu/zonetrack/zone"
)

// TimestampLayout is the ISO-8601 layout of Event.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Event is the JSON object sent to subscribers for every new detection.
type Event struct {
	Timestamp string `json:"timestamp"`
	DeviceID  string `json:"device_id"`
	RFIDTag   string `json:"rfid_tag"`
	Zone      int    `json:"zone"`
	ZoneName  string `json:"zone_name"`
	Location  string `json:"location"`
}

// NewEvent builds the event for read. Location mirrors the zone name.
func NewEvent(deviceID string, read zone.TagRead) Event {
	return Event{
		Timestamp: read.ObservedAt.Format(TimestampLayout),
		DeviceID:  deviceID,
		RFIDTag:   read.EPC,
		Zone:      read.Zone.ID,
		ZoneName:  read.Zone.Name,
		Location:  read.Zone.Name,
	}
}

// Encode renders the event as one UTF-8 JSON line terminated by '\n'.
func (e Event) Encode() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	return append(b, '\n'), nil
}

// ObservedAt parses the event timestamp.
func (e Event) ObservedAt() (time.Time, error) {
	return time.Parse(TimestampLayout, e.Timestamp)
}
