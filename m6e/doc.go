// Package m6e implements the command and response framing used to drive a
// ThingMagic M6E Nano class UHF RFID reader over a serial line.
//
// # Command Frames
//
// The tracker only ever sends seven fixed frames, so they are stored as
// opaque byte sequences rather than built at runtime:
//
//   - four antenna-select frames, one per zone 1–4 ([SelectAntenna])
//   - a timed inventory read of 500 ms ([ReadCommand])
//   - region and power configuration, applied once at startup ([InitSequence])
//
// Every builder returns a fresh copy, so a caller can never corrupt the table.
//
// # Response Frames
//
// A response starts with the [SOF] sync byte followed by a length byte and a
// status byte. Reader firmware may prepend a variable amount of metadata
// before the EPC, so [ParseTag] scans a bounded window of offsets for the
// first 12-byte block that looks like an identifier instead of trusting a
// single fixed offset.
package m6e
