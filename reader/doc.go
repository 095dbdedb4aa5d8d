// Package reader provides the byte-stream transport between the tracker and
// the RFID reader hardware.
//
// The tracker only needs three operations from the reader link: write a
// command frame, drain whatever the reader has buffered since the last drain,
// and close. [Transport] captures that contract so the scanner can be driven
// by an in-memory fake in tests, while [SerialTransport] talks to the real
// UART through go.bug.st/serial.
package reader
