package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configFixture = `{
	"meters": {
		"acuvim2": {
			"site": {"host": "10.0.0.9:502", "id": "0d7f3b06-85cb-4cf5-b5b8-3a7cb3c2e3f7", "pollIntervalSecs": 5, "componentId": 2, "pt1": 11000, "pt2": 110, "ct1": 800, "ct2": 5}
		}
	},
	"pairs": [
		{
			"batteryId": 9,
			"inverterId": 109,
			"powerPack": {"host": "10.0.0.5:502", "id": "7c9ce264-5a34-4d90-9f03-3ec0f4d2fbd5", "pollIntervalSecs": 5},
			"nameplatePower": 1000,
			"nameplateEnergy": 98000,
			"priorityCurve": [{"x": 0, "y": 0.2}, {"x": 100, "y": 1.0}]
		},
		{
			"batteryId": 19,
			"inverterId": 119,
			"mock": {},
			"nameplatePower": 1000,
			"nameplateEnergy": 98000
		}
	],
	"dataPlatform": {
		"uploadIntervalSecs": 60,
		"supabase": {"url": "https://example.supabase.co", "anonKeyEnvVar": "SUPABASE_ANON_KEY", "userKeyEnvVar": "SUPABASE_USER_KEY", "schema": "flows"}
	},
	"repository": {"path": "results.sqlite"},
	"actor": {"defaultRequestTimeoutSecs": 10, "statusPollIntervalSecs": 3}
}`

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(configFixture), 0o644))

	cfg, err := Read(path)
	require.NoError(t, err)

	require.Contains(t, cfg.Meters.Acuvim2, "site")
	assert.Equal(t, 2, cfg.Meters.Acuvim2["site"].ComponentID)
	assert.Equal(t, 800.0, cfg.Meters.Acuvim2["site"].Ct1)

	require.Len(t, cfg.Pairs, 2)
	assert.Equal(t, 9, cfg.Pairs[0].BatteryID)
	assert.Equal(t, 109, cfg.Pairs[0].InverterID)
	require.NotNil(t, cfg.Pairs[0].Inverter)
	assert.Equal(t, "10.0.0.5:502", cfg.Pairs[0].Inverter.Host)
	assert.Len(t, cfg.Pairs[0].PriorityCurve, 2)

	assert.Nil(t, cfg.Pairs[1].Inverter)
	require.NotNil(t, cfg.Pairs[1].InverterMock)

	assert.Equal(t, "flows", cfg.DataPlatform.Supabase.Schema)
	assert.Equal(t, "results.sqlite", cfg.Repository.Path)
	assert.Equal(t, 10*time.Second, cfg.Actor.DefaultRequestTimeout())
	assert.Equal(t, 3*time.Second, cfg.Actor.StatusPollInterval())
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestActorConfig_Defaults(t *testing.T) {
	var c ActorConfig
	assert.Equal(t, 30*time.Second, c.DefaultRequestTimeout())
	assert.Equal(t, 5*time.Second, c.StatusPollInterval())
}
