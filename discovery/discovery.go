// Package discovery advertises the broadcast endpoint over mDNS so that
// downstream subscribers can find it without static configuration.
package discovery

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/arloliu/zonetrack/logger"
	"github.com/arloliu/zonetrack/zone"
	"github.com/enbility/zeroconf/v3"
)

const (
	// ServiceType is the DNS-SD service type of the broadcast endpoint.
	ServiceType = "_zonetrack._tcp"
	// Domain is the mDNS domain.
	Domain = "local"
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTDeviceID = "device_id"
	TXTZones    = "zones"
)

// ErrInvalidPort is returned by Advertise for a port outside 1..65535.
var ErrInvalidPort = errors.New("discovery: port out of range")

// Info describes the advertised endpoint.
type Info struct {
	Instance string
	DeviceID string
	Port     int
	Zones    []zone.Zone
	// Interface restricts advertising to one network interface. Empty means all.
	Interface string
}

// Advertiser publishes one service instance until Shutdown is called.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server
	logger logger.Logger
}

// InstanceName returns the DNS-SD instance name for info, falling back to
// the device id and truncated to the DNS label limit.
func InstanceName(info Info) string {
	name := strings.TrimSpace(info.Instance)
	if name == "" {
		name = info.DeviceID
	}
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}

	return name
}

// TXTRecords returns the TXT strings advertised for info, sorted by key.
// Zones are encoded as a comma separated list of ids.
func TXTRecords(info Info) []string {
	ids := make([]string, 0, len(info.Zones))
	for _, z := range info.Zones {
		ids = append(ids, strconv.Itoa(z.ID))
	}

	txt := map[string]string{
		TXTDeviceID: info.DeviceID,
		TXTZones:    strings.Join(ids, ","),
	}

	out := make([]string, 0, len(txt))
	for k, v := range txt {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)

	return out
}

// Advertise registers info with zeroconf.
func Advertise(info Info, l logger.Logger) (*Advertiser, error) {
	if info.Port <= 0 || info.Port > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, info.Port)
	}
	if l == nil {
		l = logger.GetLogger()
	}

	ifaces, err := interfaces(info.Interface)
	if err != nil {
		return nil, err
	}

	name := InstanceName(info)
	server, err := zeroconf.Register(name, ServiceType, Domain, info.Port, TXTRecords(info), ifaces)
	if err != nil {
		return nil, fmt.Errorf("discovery: register %s: %w", name, err)
	}

	l.Info("mdns service advertised", "instance", name, "service", ServiceType, "port", info.Port)

	return &Advertiser{server: server, logger: l}, nil
}

// Shutdown withdraws the advertisement. It is safe to call more than once.
func (a *Advertiser) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	a.logger.Info("mdns service withdrawn")
}

// nil means all interfaces
func interfaces(name string) ([]net.Interface, error) {
	if name == "" {
		return nil, nil
	}

	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("discovery: interface %s: %w", name, err)
	}

	return []net.Interface{*iface}, nil
}
