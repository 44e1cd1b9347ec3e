package cachestorage

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the storage engine settings plus connection details
// for the bundled backends. Backend blocks are only read by the backend
// they belong to.
type Config struct {
	// MaxUpdateRetries is the number of extra CAS attempts Update makes
	// after the first one fails due to a concurrent writer.
	MaxUpdateRetries int `yaml:"maxUpdateRetries"`
	// MaxObjectSizeBytes is advisory: serialized entries above this size
	// are logged but still handed to the backend. Backends that enforce
	// their own size ceiling (e.g. memcached's 1 MiB item limit) ignore
	// this field entirely.
	MaxObjectSizeBytes int64 `yaml:"maxObjectSizeBytes"`

	SQLite struct {
		Path string `yaml:"path"`
	} `yaml:"sqlite"`
	LevelDB struct {
		Path string `yaml:"path"`
	} `yaml:"leveldb"`
	Redis struct {
		Addr       string `yaml:"addr"`
		TTLSeconds int    `yaml:"ttlSeconds"`
	} `yaml:"redis"`
	Memcached struct {
		Addrs []string `yaml:"addrs"`
	} `yaml:"memcached"`
	S3 struct {
		Bucket string `yaml:"bucket"`
		Prefix string `yaml:"prefix"`
	} `yaml:"s3"`
	FS struct {
		Dir string `yaml:"dir"`
	} `yaml:"fs"`
}

// DefaultConfig returns the documented defaults: one CAS retry and an
// 8 KiB advisory object size.
func DefaultConfig() Config {
	return Config{
		MaxUpdateRetries:   1,
		MaxObjectSizeBytes: 8192,
	}
}

// LoadConfig reads a YAML config file, filling in defaults for fields
// the file does not set.
func LoadConfig(filename string) (Config, error) {
	config := DefaultConfig()
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}
