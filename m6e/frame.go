package m6e

import "github.com/arloliu/zonetrack/zone"

// SOF is the start-of-frame sync byte that leads every command and response.
const SOF byte = 0xFF

// ReadDuration is the inventory duration encoded in the read command frame, in milliseconds.
const ReadDuration = 500

// Opcodes carried in byte 2 of the command frames.
const (
	OpReadTagSingle byte = 0x22
	OpSetAntenna    byte = 0x61
	OpSetReaderOpt  byte = 0x04
)

var (
	antennaFrames = [zone.Count][]byte{
		{0xFF, 0x02, 0x61, 0x00, 0x01, 0x9C, 0x7E},
		{0xFF, 0x02, 0x61, 0x00, 0x02, 0xBD, 0xBE},
		{0xFF, 0x02, 0x61, 0x00, 0x03, 0xDD, 0x7F},
		{0xFF, 0x02, 0x61, 0x00, 0x04, 0x3C, 0xFF},
	}

	// 0x01F4 = 500 ms
	readFrame = []byte{0xFF, 0x04, 0x22, 0x00, 0x00, 0x01, 0xF4, 0xFB, 0xA6}

	regionFrame = []byte{0xFF, 0x0A, 0x04, 0x03, 0x00, 0x04, 0x01, 0x02, 0x06, 0x60}

	// 27 dBm, suited to 10.5 dBi antennas
	powerFrame = []byte{0xFF, 0x07, 0x04, 0x03, 0x00, 0x05, 0x02, 0x02, 0x0A, 0x8C, 0xAF, 0x49}
)

// SelectAntenna returns the frame that switches the reader to the antenna of
// zoneID. ok is false, and the frame nil, for any id outside 1–4.
func SelectAntenna(zoneID int) (frame []byte, ok bool) {
	if !zone.Valid(zoneID) {
		return nil, false
	}

	return clone(antennaFrames[zoneID-zone.MinID]), true
}

// ReadCommand returns the timed inventory read frame ([ReadDuration] ms).
func ReadCommand() []byte {
	return clone(readFrame)
}

// InitFrame is one configuration frame of the startup sequence.
type InitFrame struct {
	Name  string
	Frame []byte
}

// InitSequence returns the configuration frames applied once at startup, in
// order: region, then transmit power.
func InitSequence() []InitFrame {
	return []InitFrame{
		{Name: "region", Frame: clone(regionFrame)},
		{Name: "power", Frame: clone(powerFrame)},
	}
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)

	return out
}
