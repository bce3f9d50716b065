// Package config resolves process settings from defaults, an optional YAML
// file and environment variables, in that order.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// EnvFile names the environment variable that points at a YAML config file.
const EnvFile = "CROP_CONFIG"

type Config struct {
	Port        string `yaml:"port"`
	ModelPath   string `yaml:"model_path"`
	DatasetPath string `yaml:"dataset_path"`
	Algo        string `yaml:"algo"`
	Seed        int64  `yaml:"seed"`
	Estimators  int    `yaml:"estimators"`
	MaxDepth    int    `yaml:"max_depth"`
	Workers     int    `yaml:"workers"`
	LogFile     string `yaml:"log_file"`
}

func Default() Config {
	return Config{
		Port:        "5000",
		ModelPath:   "crop_predictor_model.gob",
		DatasetPath: "Crop_recommendation.csv",
		Algo:        "rf",
		Seed:        42,
		Estimators:  100,
	}
}

// Load applies the YAML file named by CROP_CONFIG, if any, and then the
// environment on top of the defaults.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path, ok := lookup(EnvFile); ok && path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.mergeEnv(lookup); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Port)
	str("MODEL_PATH", &c.ModelPath)
	str("DATASET_PATH", &c.DatasetPath)
	str("MODEL_ALGO", &c.Algo)
	str("LOG_FILE", &c.LogFile)

	if v, ok := lookup("MODEL_SEED"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "MODEL_SEED=%q", v)
		}
		c.Seed = n
	}
	if v, ok := lookup("MODEL_ESTIMATORS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "MODEL_ESTIMATORS=%q", v)
		}
		c.Estimators = n
	}
	c.Algo = strings.ToLower(c.Algo)
	return nil
}

func (c Config) Validate() error {
	switch c.Algo {
	case "rf", "bagging", "dt":
	default:
		return errors.Newf("unknown algo %q (want rf|bagging|dt)", c.Algo)
	}
	if c.Estimators <= 0 {
		return errors.Newf("estimators must be positive, got %d", c.Estimators)
	}
	if c.Port == "" {
		return errors.New("port is empty")
	}
	if c.ModelPath == "" {
		return errors.New("model path is empty")
	}
	return nil
}

func (c Config) Addr() string { return ":" + c.Port }
