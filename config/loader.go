package config

import (
	"fmt"
	"strings"

	"dario.cat/mergo"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	Delimiter = "__"
	EnvPrefix = "SERVICE__"
)

type ServiceConfig interface {
	Validate() error
}

// Defaults returns the values used for keys missing from both the YAML file and the environment.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"name":                                      "bridgetx-store",
		"version":                                   "0.1.0",
		"env":                                       "dev",
		"storage.driver":                            StorageDriverRedis,
		"storage.encoding":                          EncodingJSON,
		"storage.redis.host":                        "localhost:6379",
		"storage.redis.maxUpdateRetries":            10,
		"storage.redis.connectionPool.readTimeout":  "3s",
		"storage.redis.connectionPool.writeTimeout": "3s",
		"storage.inMemory.persistenceInterval":      "30s",
		"guard.allowedStatuses":                     []string{"initiated", "error", "processed", "finalized"},
		"guard.blockFinalizedRewind":                true,
		"guard.atomic":                              true,
		"api.http.address":                          "0.0.0.0:8080",
		"api.grpc.address":                          "0.0.0.0:9090",
		"api.scanRateLimit":                         5,
		"api.scanBurst":                             5,
		"kafka.topic":                               "bridge-tx-status",
	}
}

// LoadServiceConfig initializes a ServiceConfig instance with settings from a specified YAML config file and environment variables.
// - `config` must be a pointer to a ServiceConfig instance where the loaded configuration will be stored.
// - `filePath` specifies the path to the YAML configuration file. If `filePath` is empty, loading from the file is skipped.
// - Values from Defaults are loaded first, then the YAML file (if provided), then environment variables that match the prefix and structure defined by EnvPrefix.
// Environment variable names are converted to lowerCamelCase to match the YAML file keys.
// - After loading the configurations, it validates the final configuration structure using the `Validate` method on the ServiceConfig instance.
// - Returns an error if reading from the file, environment variables, unmarshaling, or validation fails.
func LoadServiceConfig[SC ServiceConfig](config SC, filePath string) error {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return fmt.Errorf("failed to load default config: %w", err)
	}

	if len(filePath) > 0 {
		if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("failed to read config with path %s: %w", filePath, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, Delimiter, func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		nested := strings.Split(s, Delimiter)
		for index := 0; index < len(nested); index++ {
			nested[index] = strcase.ToLowerCamel(nested[index])
		}
		return strings.Join(nested, Delimiter)
	}), nil, koanf.WithMergeFunc(func(src, dest map[string]interface{}) error {
		return mergo.Merge(&dest, src, mergo.WithOverride)
	})); err != nil {
		return fmt.Errorf("failed to read environment variables: %w", err)
	}

	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return fmt.Errorf("failed to validate config: %w", err)
	}

	return nil
}
