package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
server:
  http:
    addr: 0.0.0.0:8000
    timeout: 5s
  grpc:
    addr: 0.0.0.0:9000
data:
  database:
    driver: mysql
    source: root:root@tcp(127.0.0.1:3306)/subscription
    max_idle_conns: 5
    conn_max_lifetime: 1h
    auto_migrate: true
  redis:
    addr: 127.0.0.1:6379
    read_timeout: 200ms
cron:
  trial_reminder_spec: "0 0 10 * * *"
log:
  level: debug
  output: stdout
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	require.NoError(t, c.ValidateCron())

	assert.Equal(t, "0.0.0.0:8000", c.Server.Http.Addr)
	assert.Equal(t, 5, c.Data.Database.MaxIdleConns)
	assert.True(t, c.Data.Database.AutoMigrate)
	assert.Equal(t, "debug", c.Log.Level)

	assert.Equal(t, defaultTrialExpirySpec, c.Cron.TrialExpirySpec)
	assert.Equal(t, "0 0 10 * * *", c.Cron.TrialReminderSpec)
	assert.Equal(t, defaultReminderDays, c.Cron.ReminderDays)
	assert.Equal(t, defaultJobTimeout, c.Cron.JobTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("server: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(b *Bootstrap)
	}{
		{"no_server", func(b *Bootstrap) { b.Server = nil }},
		{"no_http_addr", func(b *Bootstrap) { b.Server.Http.Addr = "" }},
		{"no_grpc_addr", func(b *Bootstrap) { b.Server.Grpc.Addr = "" }},
		{"no_data", func(b *Bootstrap) { b.Data = nil }},
		{"no_source", func(b *Bootstrap) { b.Data.Database.Source = "" }},
		{"file_without_path", func(b *Bootstrap) { b.Log.Output = "file"; b.Log.FilePath = "" }},
		{"bad_timeout", func(b *Bootstrap) { b.Server.Http.Timeout = "soon" }},
		{"bad_redis_timeout", func(b *Bootstrap) { b.Data.Redis.ReadTimeout = "5 seconds" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(sampleConfig))
			require.NoError(t, err)
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
	assert.NoError(t, base.Validate())
}

func TestValidateCron(t *testing.T) {
	c, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)
	c.Cron.JobTimeout = "never"
	assert.Error(t, c.ValidateCron())

	c.Cron = nil
	assert.Error(t, c.ValidateCron())
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("")
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = ParseDuration("1m30s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = ParseDuration("ninety")
	assert.Error(t, err)
}
