package m6e

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)

	return b
}

func TestSelectAntenna_Frames(t *testing.T) {
	want := map[int]string{
		1: "FF 02 61 00 01 9C 7E",
		2: "FF 02 61 00 02 BD BE",
		3: "FF 02 61 00 03 DD 7F",
		4: "FF 02 61 00 04 3C FF",
	}

	for id, frame := range want {
		got, ok := SelectAntenna(id)
		require.True(t, ok, "zone %d", id)
		assert.Equal(t, mustHex(t, frame), got, "zone %d", id)
		assert.Equal(t, SOF, got[0])
		assert.Equal(t, OpSetAntenna, got[2])
		assert.Equal(t, byte(id), got[4], "antenna index must match zone id")
	}
}

func TestSelectAntenna_InvalidZone(t *testing.T) {
	valid := make([][]byte, 0, 4)
	for id := 1; id <= 4; id++ {
		f, _ := SelectAntenna(id)
		valid = append(valid, f)
	}

	for _, id := range []int{-100, -1, 0, 5, 6, 255, 1 << 20} {
		got, ok := SelectAntenna(id)
		assert.False(t, ok, "zone %d", id)
		assert.Nil(t, got, "zone %d", id)

		for _, f := range valid {
			assert.False(t, bytes.Equal(f, got), "zone %d must not produce a valid frame", id)
		}
	}
}

func TestReadCommand(t *testing.T) {
	got := ReadCommand()
	assert.Equal(t, mustHex(t, "FF 04 22 00 00 01 F4 FB A6"), got)
	assert.Equal(t, OpReadTagSingle, got[2])

	// duration is encoded big endian in bytes 5-6
	assert.Equal(t, ReadDuration, int(got[5])<<8|int(got[6]))
}

func TestInitSequence(t *testing.T) {
	seq := InitSequence()
	require.Len(t, seq, 2)

	assert.Equal(t, "region", seq[0].Name)
	assert.Equal(t, mustHex(t, "FF 0A 04 03 00 04 01 02 06 60"), seq[0].Frame)

	assert.Equal(t, "power", seq[1].Name)
	assert.Equal(t, mustHex(t, "FF 07 04 03 00 05 02 02 0A 8C AF 49"), seq[1].Frame)

	for _, f := range seq {
		assert.Equal(t, OpSetReaderOpt, f.Frame[2], f.Name)
	}
}

func TestFrames_ReturnCopies(t *testing.T) {
	f, _ := SelectAntenna(1)
	f[4] = 0x09

	again, _ := SelectAntenna(1)
	assert.Equal(t, byte(0x01), again[4])

	r := ReadCommand()
	r[0] = 0x00
	assert.Equal(t, SOF, ReadCommand()[0])

	seq := InitSequence()
	seq[0].Frame[1] = 0x00
	assert.Equal(t, byte(0x0A), InitSequence()[0].Frame[1])
}
