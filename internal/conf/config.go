package conf

import (
	"fmt"
	"time"
)

type Bootstrap struct {
	Server *Server `yaml:"server" json:"server"`
	Data   *Data   `yaml:"data" json:"data"`
	Cron   *Cron   `yaml:"cron" json:"cron"`
	Log    *Log    `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
	Grpc struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"grpc" json:"grpc"`
}

type Data struct {
	Database struct {
		Driver          string `yaml:"driver" json:"driver"`
		Source          string `yaml:"source" json:"source"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
		AutoMigrate     bool   `yaml:"auto_migrate" json:"auto_migrate"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int32  `yaml:"db" json:"db"`
		DialTimeout  string `yaml:"dial_timeout" json:"dial_timeout"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
		PoolSize     int32  `yaml:"pool_size" json:"pool_size"`
	} `yaml:"redis" json:"redis"`
}

type Cron struct {
	// TrialExpirySpec six-field cron spec (seconds first) of the lapsed trial sweep
	TrialExpirySpec string `yaml:"trial_expiry_spec" json:"trial_expiry_spec"`
	// TrialReminderSpec six-field cron spec of the trial ending reminder
	TrialReminderSpec string `yaml:"trial_reminder_spec" json:"trial_reminder_spec"`
	// ReminderDays remind trials with at most this many days left
	ReminderDays int    `yaml:"reminder_days" json:"reminder_days"`
	JobTimeout   string `yaml:"job_timeout" json:"job_timeout"`
}

type Log struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Output     string `yaml:"output" json:"output"`
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// Validate validates the configuration
func (b *Bootstrap) Validate() error {
	if b.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Server.Grpc.Addr == "" {
		return fmt.Errorf("server.grpc.addr is required")
	}
	if b.Data == nil {
		return fmt.Errorf("data configuration is required")
	}
	if b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	if b.Log.Output == "file" && b.Log.FilePath == "" {
		return fmt.Errorf("log.file_path is required when log.output is file")
	}
	for name, v := range map[string]string{
		"server.http.timeout":             b.Server.Http.Timeout,
		"server.grpc.timeout":             b.Server.Grpc.Timeout,
		"data.database.conn_max_lifetime": b.Data.Database.ConnMaxLifetime,
		"data.redis.dial_timeout":         b.Data.Redis.DialTimeout,
		"data.redis.read_timeout":         b.Data.Redis.ReadTimeout,
		"data.redis.write_timeout":        b.Data.Redis.WriteTimeout,
	} {
		if _, err := ParseDuration(v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// ValidateCron validates the sections the cron binary needs.
func (b *Bootstrap) ValidateCron() error {
	if b.Data == nil || b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.Cron == nil {
		return fmt.Errorf("cron configuration is required")
	}
	if b.Cron.TrialExpirySpec == "" {
		return fmt.Errorf("cron.trial_expiry_spec is required")
	}
	if _, err := ParseDuration(b.Cron.JobTimeout); err != nil {
		return fmt.Errorf("cron.job_timeout: %w", err)
	}
	return nil
}

// ParseDuration parses an optional duration string; empty means zero.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
