// Package config loads the service configuration from an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/arloliu/zonetrack/broadcast"
	"github.com/arloliu/zonetrack/discovery"
	"github.com/arloliu/zonetrack/logger"
	"github.com/arloliu/zonetrack/reader"
	"github.com/arloliu/zonetrack/scanner"
	"github.com/arloliu/zonetrack/zone"
	"github.com/ilyakaznacheev/cleanenv"
)

// PathEnv names the environment variable holding the YAML config path.
const PathEnv = "ZONETRACK_CONFIG"

type Config struct {
	Broadcast Broadcast `yaml:"broadcast"`
	Reader    Reader    `yaml:"reader"`
	Scan      Scan      `yaml:"scan"`
	Log       Log       `yaml:"log"`
	Metrics   Metrics   `yaml:"metrics"`
	MDNS      MDNS      `yaml:"mdns"`
}

type Broadcast struct {
	Host     string `yaml:"host" env:"RFID_HOST" env-default:"0.0.0.0"`
	Port     int    `yaml:"port" env:"RFID_PORT" env-default:"5002"`
	DeviceID string `yaml:"device_id" env:"RFID_DEVICE_ID" env-default:"GROOMING_RFID_4ZONE"`
}

type Reader struct {
	Port string `yaml:"port" env:"RFID_UART_PORT" env-default:"/dev/ttyAMA0"`
	Baud int    `yaml:"baud" env:"RFID_UART_BAUD" env-default:"115200"`
}

type Scan struct {
	DedupWindow time.Duration `yaml:"dedup_window" env:"RFID_DEDUP_WINDOW" env-default:"5s"`
	ReadTime    time.Duration `yaml:"read_time" env:"RFID_ZONE_READ_TIME" env-default:"500ms"`
	ZoneDelay   time.Duration `yaml:"zone_delay" env:"RFID_ZONE_DELAY" env-default:"100ms"`
	StatusEvery int           `yaml:"status_every" env:"RFID_STATUS_EVERY" env-default:"20"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

type Metrics struct {
	// Addr is the listen address of the metrics server. Empty disables it.
	Addr string `yaml:"addr" env:"METRICS_ADDR"`
}

type MDNS struct {
	Enabled  bool   `yaml:"enabled" env:"MDNS_ENABLED" env-default:"false"`
	Instance string `yaml:"instance" env:"MDNS_INSTANCE"`
	// Interface restricts advertising to one network interface. Empty means all.
	Interface string `yaml:"interface" env:"MDNS_INTERFACE"`
}

// Path returns flagPath if set, otherwise the value of ZONETRACK_CONFIG.
func Path(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}

	return os.Getenv(PathEnv)
}

// Load reads path, when non-empty, and then applies environment overrides.
// Without a path the configuration comes from the environment and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error

	if c.Broadcast.Port < 1 || c.Broadcast.Port > 65535 {
		errs = append(errs, fmt.Errorf("broadcast port %d out of range", c.Broadcast.Port))
	}
	if c.Broadcast.DeviceID == "" {
		errs = append(errs, errors.New("device id is empty"))
	}
	if c.Reader.Port == "" {
		errs = append(errs, errors.New("reader port is empty"))
	}
	if c.Reader.Baud <= 0 {
		errs = append(errs, fmt.Errorf("reader baud %d must be positive", c.Reader.Baud))
	}
	if c.Scan.DedupWindow <= 0 {
		errs = append(errs, fmt.Errorf("dedup window %s must be positive", c.Scan.DedupWindow))
	}
	if c.Scan.ReadTime <= 0 {
		errs = append(errs, fmt.Errorf("zone read time %s must be positive", c.Scan.ReadTime))
	}
	if c.Scan.ZoneDelay < 0 {
		errs = append(errs, fmt.Errorf("zone delay %s must not be negative", c.Scan.ZoneDelay))
	}
	if c.Scan.StatusEvery < 1 {
		errs = append(errs, fmt.Errorf("status interval %d must be >= 1", c.Scan.StatusEvery))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid configuration: %w", errors.Join(errs...))
	}

	return nil
}

// ListenAddr returns the broadcast listen address.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Broadcast.Host, strconv.Itoa(c.Broadcast.Port))
}

// LogLevel returns the parsed log level, InfoLevel if it does not parse.
func (c *Config) LogLevel() logger.Level {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return logger.InfoLevel
	}

	return level
}

// SerialConfig builds the reader transport configuration.
func (c *Config) SerialConfig(l logger.Logger) (*reader.SerialConfig, error) {
	return reader.NewSerialConfig(c.Reader.Port,
		reader.WithBaudRate(c.Reader.Baud),
		reader.WithLogger(l),
	)
}

// ScannerOptions returns the scanner options derived from the configuration.
func (c *Config) ScannerOptions(l logger.Logger) []scanner.Option {
	return []scanner.Option{
		scanner.WithDedupWindow(c.Scan.DedupWindow),
		scanner.WithAcquireWindow(c.Scan.ReadTime),
		scanner.WithInterZoneDelay(c.Scan.ZoneDelay),
		scanner.WithLogger(l),
	}
}

// BroadcastOptions returns the hub options derived from the configuration.
func (c *Config) BroadcastOptions(l logger.Logger) []broadcast.Option {
	return []broadcast.Option{
		broadcast.WithDeviceID(c.Broadcast.DeviceID),
		broadcast.WithLogger(l),
	}
}

// MDNSInstance returns the advertised instance name, the device id unless set.
func (c *Config) MDNSInstance() string {
	if c.MDNS.Instance != "" {
		return c.MDNS.Instance
	}

	return c.Broadcast.DeviceID
}

// DiscoveryInfo returns the mDNS advertisement for the broadcast endpoint.
func (c *Config) DiscoveryInfo(zones []zone.Zone) discovery.Info {
	return discovery.Info{
		Instance:  c.MDNSInstance(),
		DeviceID:  c.Broadcast.DeviceID,
		Port:      c.Broadcast.Port,
		Zones:     zones,
		Interface: c.MDNS.Interface,
	}
}
