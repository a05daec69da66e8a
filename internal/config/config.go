// Package config loads the environment-plus-YAML configuration shared by
// the server and client processes, the same "os.Getenv with getEnv/
// getEnvInt helpers, optional YAML overlay" shape cmd/server/main.go and
// cmd/ai-service/main.go used in the teacher.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Server holds the AOI inspection server's configuration.
type Server struct {
	ListenAddr    string        `yaml:"listen_addr"`
	SharedRoot    string        `yaml:"shared_root"`
	BarcodeLinkURL string       `yaml:"barcode_link_url"`
	ModelDir      string        `yaml:"model_dir"`
	Workers       int           `yaml:"workers"`
	NATSURL       string        `yaml:"nats_url"`
	RedisAddr     string        `yaml:"redis_addr"`
	StaleSweep    time.Duration `yaml:"-"`
}

// LoadServer reads server configuration from environment variables,
// optionally overlaid by a YAML file at path (ignored if absent — a
// missing overlay degrades to env-only, never a startup failure, matching
// the teacher's "_ = yaml.Unmarshal(...)" posture).
func LoadServer(path string) Server {
	cfg := Server{
		ListenAddr:     getEnv("AOI_LISTEN_ADDR", ":8080"),
		SharedRoot:     getEnv("AOI_SHARED_ROOT", "/mnt/visual-aoi-shared"),
		BarcodeLinkURL: getEnv("AOI_BARCODE_LINK_URL", ""),
		ModelDir:       getEnv("AOI_MODEL_DIR", "./models"),
		Workers:        getEnvInt("AOI_WORKERS", 0),
		NATSURL:        getEnv("NATS_URL", ""),
		RedisAddr:      getEnv("AOI_REDIS_ADDR", ""),
		StaleSweep:     24 * time.Hour,
	}
	overlayYAML(path, &cfg)
	return cfg
}

// Client holds the client orchestrator's configuration.
type Client struct {
	ServerURL      string        `yaml:"server_url"`
	SharedRoot     string        `yaml:"shared_root"`
	CameraSerial   string        `yaml:"camera_serial"`
	Product        string        `yaml:"product"`
	SettleDelay    time.Duration `yaml:"-"`
	InspectTimeout time.Duration `yaml:"-"`
	MetaTimeout    time.Duration `yaml:"-"`
}

// LoadClient reads client configuration the same way LoadServer does.
func LoadClient(path string) Client {
	cfg := Client{
		ServerURL:      getEnv("AOI_SERVER_URL", "http://localhost:8080"),
		SharedRoot:     getEnv("AOI_SHARED_ROOT", "/mnt/visual-aoi-shared"),
		CameraSerial:   getEnv("AOI_CAMERA_SERIAL", "cam0"),
		Product:        getEnv("AOI_PRODUCT", ""),
		SettleDelay:    durationMS(getEnvInt("AOI_SETTLE_DELAY_MS", 400)),
		InspectTimeout: 180 * time.Second,
		MetaTimeout:    10 * time.Second,
	}
	overlayYAML(path, &cfg)
	return cfg
}

func durationMS(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

func overlayYAML(path string, out interface{}) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	_ = yaml.Unmarshal(data, out)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
