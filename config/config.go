// Package config loads the JSON configuration for the power distribution
// core: the component graph (pairs, meters), device connection details,
// data-platform upload settings, and actor-level defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cepro/powercore/cartesian"
	"github.com/google/uuid"
)

// DeviceConfig is the connection info shared by every Modbus-polled device.
type DeviceConfig struct {
	Host             string    `json:"host"`
	ID               uuid.UUID `json:"id"`
	PollIntervalSecs int       `json:"pollIntervalSecs"`
}

// MetersConfig lists the meters in the component graph that are not part of
// a battery/inverter pair (site meter, sub-meters).
type MetersConfig struct {
	Acuvim2 map[string]Acuvim2MeterConfig `json:"acuvim2"`
	Mock    map[string]Acuvim2MeterConfig `json:"mock"`
}

type Acuvim2MeterConfig struct {
	DeviceConfig
	// ComponentID places the meter in the component graph.
	ComponentID int     `json:"componentId"`
	Pt1         float64 `json:"pt1"`
	Pt2         float64 `json:"pt2"`
	Ct1         float64 `json:"ct1"`
	Ct2         float64 `json:"ct2"`
}

// PairConfig describes one battery+inverter dispatch unit: the battery's
// nameplate ratings, the inverter's Modbus connection, and an optional
// priority curve biasing how much of a distributed request this pair
// absorbs relative to its peers.
type PairConfig struct {
	BatteryID       int               `json:"batteryId"`
	InverterID      int               `json:"inverterId"`
	Inverter        *PowerPackConfig  `json:"powerPack"`
	InverterMock    *MockPairConfig   `json:"mock"`
	NameplatePower  float64           `json:"nameplatePower"`
	NameplateEnergy float64           `json:"nameplateEnergy"`
	PriorityCurve   []cartesian.Point `json:"priorityCurve"`
}

// PowerPackConfig is the Modbus connection for a real powerpack.PowerPack
// inverter.
type PowerPackConfig struct {
	DeviceConfig
}

// MockPairConfig selects the in-memory dispatch.Mock for a pair instead of a
// real Modbus device, for local testing and simulation.
type MockPairConfig struct{}

// SupabaseConfig is the connection info for the Supabase-backed data
// platform upload.
type SupabaseConfig struct {
	Url string `json:"url"`
	// keys are specified via env var, named here, so that secrets never
	// appear directly in the config file
	AnonKeyEnvVar string `json:"anonKeyEnvVar"`
	UserKeyEnvVar string `json:"userKeyEnvVar"`
	Schema        string `json:"schema"`
}

// DataPlatformConfig configures periodic upload of dispatch results to an
// external data platform.
type DataPlatformConfig struct {
	UploadIntervalSecs int            `json:"uploadIntervalSecs"`
	Supabase           SupabaseConfig `json:"supabase"`
}

// RepositoryConfig configures local persistence of dispatch results, as an
// audit trail, via gorm + sqlite.
type RepositoryConfig struct {
	Path string `json:"path"`
}

// ActorConfig holds the Request Serializer's operational defaults.
type ActorConfig struct {
	DefaultRequestTimeoutSecs int `json:"defaultRequestTimeoutSecs"`
	StatusPollIntervalSecs    int `json:"statusPollIntervalSecs"`
}

// DefaultRequestTimeout returns the configured default as a time.Duration,
// falling back to 30s if unset.
func (c ActorConfig) DefaultRequestTimeout() time.Duration {
	if c.DefaultRequestTimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.DefaultRequestTimeoutSecs) * time.Second
}

// StatusPollInterval returns the configured interval, falling back to 5s.
func (c ActorConfig) StatusPollInterval() time.Duration {
	if c.StatusPollIntervalSecs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.StatusPollIntervalSecs) * time.Second
}

// Config is the top-level configuration document.
type Config struct {
	Meters       MetersConfig       `json:"meters"`
	Pairs        []PairConfig       `json:"pairs"`
	DataPlatform DataPlatformConfig `json:"dataPlatform"`
	Repository   RepositoryConfig   `json:"repository"`
	Actor        ActorConfig        `json:"actor"`
}

// Read loads and unmarshals the configuration file at path.
func Read(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(content, &config); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return config, nil
}
