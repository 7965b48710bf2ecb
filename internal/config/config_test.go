// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/crowdsale/bonus"
)

const testOwner = "0x0000000000000000000000000000000000000101"

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "test-crowdsale.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o600))
	return tmpFile
}

func TestLoadFullConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	yamlContent := `
owner: "` + testOwner + `"
admins:
  - "0x0000000000000000000000000000000000000102"
sale:
  openingTime: 1000000
  closingTime: 2000000
  rate: "100"
  softCap: "10"
  hardCap: "1000"
bonus:
  - fromDay: 0
    percent: 20
  - fromDay: 10
    percent: 5
databasePath: "/var/lib/crowdsale"
bindAddr: "0.0.0.0"
apiPort: 9000
metricsPort: 9001
rateLimit: 10
shutdownTimeout: "5s"
tracing:
  enabled: true
  stdout: true
`
	cfg, err := LoadConfig(writeConfigFile(t, yamlContent))
	require.NoError(t, err)
	expected := &Config{
		Owner:  testOwner,
		Admins: []string{"0x0000000000000000000000000000000000000102"},
		Sale: SaleConfig{
			OpeningTime: 1000000,
			ClosingTime: 2000000,
			Rate:        "100",
			SoftCap:     "10",
			HardCap:     "1000",
		},
		Bonus: []bonus.Step{
			{FromDay: 0, Percent: 20},
			{FromDay: 10, Percent: 5},
		},
		DatabasePath:    "/var/lib/crowdsale",
		BindAddr:        "0.0.0.0",
		ApiPort:         9000,
		MetricsPort:     9001,
		RateLimit:       10,
		ShutdownTimeout: "5s",
		Tracing:         TracingConfig{Enabled: true, Stdout: true},
	}
	require.Equal(t, expected, cfg)

	params, err := cfg.SaleParams()
	require.NoError(t, err)
	require.Equal(t, uint64(1000000), params.OpeningTime)
	require.Equal(t, int64(1000), params.HardCap.Int64())
	schedule, err := cfg.BonusSchedule()
	require.NoError(t, err)
	require.Equal(t, uint64(5), schedule.Percent(11))
	timeout, err := cfg.ShutdownTimeoutDuration()
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, timeout)
	require.Equal(t, "0.0.0.0:9000", cfg.ApiListenAddress())
	require.Equal(t, "0.0.0.0:9001", cfg.MetricsListenAddress())
}

func TestLoadDefaultsWithEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CROWDSALE_OWNER", testOwner)
	t.Setenv("CROWDSALE_ADMINS", "0x0000000000000000000000000000000000000102,0x0000000000000000000000000000000000000103")
	t.Setenv("CROWDSALE_SALE_RATE", "250")
	t.Setenv("CROWDSALE_API_PORT", "8181")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, ".crowdsale", cfg.DatabasePath)
	require.Equal(t, "127.0.0.1:8181", cfg.ApiListenAddress())
	require.Equal(t, "250", cfg.Sale.Rate)
	require.Equal(t, DefaultRateLimit, cfg.RateLimit)
	admins, err := cfg.AdminAddresses()
	require.NoError(t, err)
	require.Equal(
		t,
		[]common.Address{
			common.HexToAddress("0x0000000000000000000000000000000000000102"),
			common.HexToAddress("0x0000000000000000000000000000000000000103"),
		},
		admins,
	)
	schedule, err := cfg.BonusSchedule()
	require.NoError(t, err)
	require.Equal(t, bonus.DefaultSchedule().Steps(), schedule.Steps())
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CROWDSALE_METRICS_PORT", "7000")
	cfg, err := LoadConfig(writeConfigFile(t, "owner: \""+testOwner+"\"\nmetricsPort: 9001\n"))
	require.NoError(t, err)
	require.Equal(t, uint(7000), cfg.MetricsPort)
}

func TestLoadInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	testDefs := []struct {
		content string
		err     error
	}{
		{content: "apiPort: 1\n", err: ErrOwnerRequired},
		{content: "owner: \"0x1234\"\n", err: ErrInvalidAddress},
		{content: "owner: \"" + testOwner + "\"\nadmins: [\"nope\"]\n", err: ErrInvalidAddress},
		{
			content: "owner: \"" + testOwner + "\"\nbonus:\n  - fromDay: 1\n    percent: 5\n",
			err:     bonus.ErrScheduleStart,
		},
	}
	for _, testDef := range testDefs {
		_, err := LoadConfig(writeConfigFile(t, testDef.content))
		require.ErrorIs(t, err, testDef.err, testDef.content)
	}
	_, err := LoadConfig(writeConfigFile(t, "owner: [\n"))
	require.Error(t, err)
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSaleParamsInvalidAmount(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sale.Rate = "abc"
	_, err := cfg.SaleParams()
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestContext(t *testing.T) {
	require.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	require.Same(t, cfg, FromContext(ctx))
}
