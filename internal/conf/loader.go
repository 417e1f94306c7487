package conf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	defaultTrialExpirySpec = "0 0 * * * *"
	defaultReminderDays    = 2
	defaultJobTimeout      = "5m"
)

// Load reads a YAML config file and fills the cron defaults
func Load(path string) (*Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes and fills the cron defaults
func Parse(data []byte) (*Bootstrap, error) {
	var c Bootstrap
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

func (b *Bootstrap) applyDefaults() {
	if b.Cron == nil {
		b.Cron = &Cron{}
	}
	if b.Cron.TrialExpirySpec == "" {
		b.Cron.TrialExpirySpec = defaultTrialExpirySpec
	}
	if b.Cron.ReminderDays == 0 {
		b.Cron.ReminderDays = defaultReminderDays
	}
	if b.Cron.JobTimeout == "" {
		b.Cron.JobTimeout = defaultJobTimeout
	}
	if b.Log == nil {
		b.Log = &Log{Level: "info", Format: "json", Output: "stdout"}
	}
}
