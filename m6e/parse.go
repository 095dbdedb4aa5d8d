package m6e

import (
	"encoding/hex"
	"strings"
)

const (
	// MinResponseLength is the shortest buffer ParseTag will look at.
	MinResponseLength = 10

	// EPCLength is the size of the tag identifier block in bytes.
	EPCLength = 12

	// StatusSuccess is the status byte value of a successful response.
	StatusSuccess byte = 0x00

	statusOffset = 2

	// scanStart and scanLimit bound the offsets searched for the EPC block.
	scanStart = 9
	scanLimit = 20

	// scanTail is the number of trailing bytes (metadata and CRC) that can
	// never start an EPC block.
	scanTail = 6
)

// ParseTag extracts the EPC identifier from a raw reader response.
//
// The buffer must be at least [MinResponseLength] bytes, start with [SOF] and
// carry [StatusSuccess] in its status byte. ParseTag then returns the first
// [EPCLength]-byte block, starting at an offset in [9, min(len-6, 20)), that
// is neither all 0x00 nor all 0xFF, rendered as uppercase hexadecimal.
//
// Malformed input never causes an error; ok is simply false.
func ParseTag(raw []byte) (epc string, ok bool) {
	if len(raw) < MinResponseLength || raw[0] != SOF {
		return "", false
	}

	if raw[statusOffset] != StatusSuccess {
		return "", false
	}

	limit := min(len(raw)-scanTail, scanLimit)
	for off := scanStart; off < limit; off++ {
		if off+EPCLength > len(raw) {
			break
		}

		block := raw[off : off+EPCLength]
		if isFill(block, 0x00) || isFill(block, 0xFF) {
			continue
		}

		return strings.ToUpper(hex.EncodeToString(block)), true
	}

	return "", false
}

func isFill(b []byte, v byte) bool {
	for _, c := range b {
		if c != v {
			return false
		}
	}

	return true
}
