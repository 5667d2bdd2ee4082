package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML file named by REPORTCARD_CONFIG.
type fileConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"logLevel"`
	Server   struct {
		Port             string   `yaml:"port"`
		CORSAllowOrigins []string `yaml:"corsAllowOrigins"`
		MaxUploadBytes   int      `yaml:"maxUploadBytes"`
	} `yaml:"server"`
	Analyze struct {
		Endpoint       string `yaml:"endpoint"`
		BaseURL        string `yaml:"baseUrl"`
		Mode           string `yaml:"mode"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
	} `yaml:"analyze"`
	Storage struct {
		Type      string `yaml:"type"`
		LocalDir  string `yaml:"localDir"`
		AWSRegion string `yaml:"awsRegion"`
		S3Bucket  string `yaml:"s3Bucket"`
		S3Prefix  string `yaml:"s3Prefix"`
	} `yaml:"storage"`
}

// loadEnvFiles loads KEY=VALUE pairs from the given files if they exist.
// Variables already present in the environment are left untouched.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			log.Printf("config: ignoring env file %s: %v", path, err)
		}
	}
}

func loadFile(path string) (fileConfig, error) {
	var cfg fileConfig
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("unmarshal yaml: %w", err)
	}
	return cfg, nil
}
