package settings

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	DefaultWorkstation   = "Postazione 1"
	DefaultServerAddress = "localhost"
	DefaultServerPort    = 8080
)

// Workstation is the per-device configuration a shop-floor client keeps:
// its own name (recorded as a request's origin station) and where the API lives.
type Workstation struct {
	Name          string `mapstructure:"workstation" yaml:"workstation"`
	ServerAddress string `mapstructure:"server_address" yaml:"server_address"`
	ServerPort    int    `mapstructure:"server_port" yaml:"server_port"`
}

// Defaults returns the settings a fresh workstation starts with.
func Defaults() Workstation {
	return Workstation{
		Name:          DefaultWorkstation,
		ServerAddress: DefaultServerAddress,
		ServerPort:    DefaultServerPort,
	}
}

// BaseURL is the http origin built from address and port.
func (w Workstation) BaseURL() string {
	addr := strings.TrimSpace(w.ServerAddress)
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/") + ":" + strconv.Itoa(w.ServerPort)
	}
	return "http://" + net.JoinHostPort(addr, strconv.Itoa(w.ServerPort))
}

// Validate rejects settings that cannot be saved.
func (w Workstation) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return errors.New("workstation name is required")
	}
	if strings.TrimSpace(w.ServerAddress) == "" {
		return errors.New("server address is required")
	}
	if w.ServerPort < 1 || w.ServerPort > 65535 {
		return fmt.Errorf("server port %d out of range", w.ServerPort)
	}
	return nil
}

// DefaultPath returns ~/.config/paintdesk/settings.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "settings.yaml")
	}
	return filepath.Join(home, ".config", "paintdesk", "settings.yaml")
}

// Load reads settings from path. A missing file yields Defaults.
func Load(path string) (Workstation, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := Defaults()
	v.SetDefault("workstation", defaults.Name)
	v.SetDefault("server_address", defaults.ServerAddress)
	v.SetDefault("server_port", defaults.ServerPort)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return defaults, nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return defaults, nil
		}
		return Workstation{}, fmt.Errorf("reading settings %s: %w", path, err)
	}

	cfg := defaults
	if err := v.Unmarshal(&cfg); err != nil {
		return Workstation{}, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		cfg.Name = defaults.Name
	}
	return cfg, nil
}

// Save validates and writes settings to path, creating parent directories.
func Save(path string, cfg Workstation) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating settings directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.Set("workstation", strings.TrimSpace(cfg.Name))
	v.Set("server_address", strings.TrimSpace(cfg.ServerAddress))
	v.Set("server_port", cfg.ServerPort)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing settings to %s: %w", path, err)
	}
	return nil
}
