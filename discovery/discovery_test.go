package discovery

import (
	"strings"
	"testing"

	"github.com/arloliu/zonetrack/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceName(t *testing.T) {
	assert.Equal(t, "kennel-a", InstanceName(Info{Instance: " kennel-a ", DeviceID: "DEV"}))
	assert.Equal(t, "DEV", InstanceName(Info{DeviceID: "DEV"}))

	long := strings.Repeat("x", 80)
	assert.Len(t, InstanceName(Info{DeviceID: long}), MaxInstanceNameLen)
}

func TestTXTRecords(t *testing.T) {
	txt := TXTRecords(Info{DeviceID: "GROOMING_RFID_4ZONE", Zones: zone.All()})
	assert.Equal(t, []string{"device_id=GROOMING_RFID_4ZONE", "zones=1,2,3,4"}, txt)

	txt = TXTRecords(Info{DeviceID: "D"})
	assert.Equal(t, []string{"device_id=D", "zones="}, txt)
}

func TestAdvertise_InvalidInput(t *testing.T) {
	_, err := Advertise(Info{DeviceID: "D", Port: 0}, nil)
	require.ErrorIs(t, err, ErrInvalidPort)

	_, err = Advertise(Info{DeviceID: "D", Port: 70000}, nil)
	require.ErrorIs(t, err, ErrInvalidPort)

	_, err = Advertise(Info{DeviceID: "D", Port: 5002, Interface: "no-such-iface0"}, nil)
	require.Error(t, err)
}

func TestAdvertiser_ShutdownIdempotent(t *testing.T) {
	a := &Advertiser{}
	a.Shutdown()
	a.Shutdown()
}
