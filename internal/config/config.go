package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the directory passed to Load.
const FileName = "persistent_rotation.cfg.json"

// EngineConfig holds reconciliation engine tuning.
type EngineConfig struct {
	MomentumThreshold    float64 `json:"momentumThreshold" mapstructure:"momentumThreshold"`
	DebrisSpinMax        float64 `json:"debrisSpinMax" mapstructure:"debrisSpinMax"`
	DefaultReferenceMode string  `json:"defaultReferenceMode" mapstructure:"defaultReferenceMode"`
}

// FileConfig holds file slot backend settings
type FileConfig struct {
	Dir      string `json:"dir" mapstructure:"dir"`
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// SQLiteConfig holds sqlite slot backend settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// DBConfig holds postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
}

// StorageConfig selects and configures the save-slot backend
type StorageConfig struct {
	Type     string       `json:"type" mapstructure:"type"`
	MaxSlots int          `json:"maxSlots" mapstructure:"maxSlots"`
	File     FileConfig   `json:"file" mapstructure:"file"`
	SQLite   SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	Postgres DBConfig     `json:"db" mapstructure:"db"`
}

// InfluxConfig holds telemetry writer settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
}

// URL returns the influx server address.
func (c InfluxConfig) URL() string {
	return fmt.Sprintf("%s://%s:%s", c.Protocol, c.Host, c.Port)
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// SetDefaults registers every default value. Load calls it; callers running
// without a config file call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./prlogs")
	viper.SetDefault("defaultReferenceMode", "none")

	viper.SetDefault("engine.momentumThreshold", 0.05)
	viper.SetDefault("engine.debrisSpinMax", 0.1)

	viper.SetDefault("storage.type", "file")
	viper.SetDefault("storage.maxSlots", 10)
	viper.SetDefault("storage.file.dir", "./PluginData")
	viper.SetDefault("storage.file.compress", false)
	viper.SetDefault("storage.sqlite.path", "./PluginData/persistent_rotation.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "persistent_rotation")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "persistent-rotation")
	viper.SetDefault("influx.bucket", "rotation")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "persistent-rotation")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetEngineConfig returns the engine section.
func GetEngineConfig() EngineConfig {
	return EngineConfig{
		MomentumThreshold:    viper.GetFloat64("engine.momentumThreshold"),
		DebrisSpinMax:        viper.GetFloat64("engine.debrisSpinMax"),
		DefaultReferenceMode: viper.GetString("defaultReferenceMode"),
	}
}

// GetStorageConfig returns the storage section with the postgres
// connection settings from db.*.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:     viper.GetString("storage.type"),
		MaxSlots: viper.GetInt("storage.maxSlots"),
		File: FileConfig{
			Dir:      viper.GetString("storage.file.dir"),
			Compress: viper.GetBool("storage.file.compress"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		Postgres: GetDBConfig(),
	}
}

// GetDBConfig returns the postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
	}
}

// GetInfluxConfig returns the influx section.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetOTelConfig returns the otel section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
