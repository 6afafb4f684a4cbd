package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"github.com/joho/godotenv"
)

// AppConfig holds the structure of the configuration
type AppConfig struct {
	SelfPath  string `json:"selfpath"`
	Port      string `json:"port"`
	Blocksize int    `json:"blocksize"`
	Gridsize  int    `json:"gridsize"`

	// 速度曲线，单位毫秒
	SpeedMax             int  `json:"speed_max"`
	SpeedMin             int  `json:"speed_min"`
	SpeedDecrement       int  `json:"speed_decrement"`
	SpeedRandomThreshold int  `json:"speed_random_threshold"`
	EnableUTurn          bool `json:"enable_uturn"`
}

var (
	instance *AppConfig
	once     sync.Once
	mu       sync.RWMutex
)

func defaults() *AppConfig {
	return &AppConfig{
		SelfPath:             "http://www.example.com", // Default value
		Port:                 "38870",                  // Default value
		Blocksize:            20,
		Gridsize:             30,
		SpeedMax:             100,
		SpeedMin:             50,
		SpeedDecrement:       5,
		SpeedRandomThreshold: 200,
	}
}

// Validate rejects values the engine cannot run with.
func (c *AppConfig) Validate() error {
	switch {
	case c.Blocksize <= 0:
		return fmt.Errorf("blocksize must be positive, got %d", c.Blocksize)
	case c.Gridsize <= 0:
		return fmt.Errorf("gridsize must be positive, got %d", c.Gridsize)
	case c.SpeedMin <= 0:
		return fmt.Errorf("speed_min must be positive, got %d", c.SpeedMin)
	case c.SpeedMax < c.SpeedMin:
		return fmt.Errorf("speed_max %d is below speed_min %d", c.SpeedMax, c.SpeedMin)
	case c.SpeedDecrement < 0:
		return fmt.Errorf("speed_decrement must not be negative, got %d", c.SpeedDecrement)
	case c.SpeedRandomThreshold < 0:
		return fmt.Errorf("speed_random_threshold must not be negative, got %d", c.SpeedRandomThreshold)
	}
	return nil
}

// LoadConfig initializes and returns the instance of AppConfig.
// A .env file next to the binary and SNAKE_* environment variables override
// values from the JSON file.
func LoadConfig(filePath string) *AppConfig {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			glog.Warningf("loading .env: %v", err)
		}
		instance = loadInitial(filePath)
	})
	return Get()
}

// loadInitial reads filePath, creating it with defaults when missing. An
// invalid result falls back to the defaults.
func loadInitial(filePath string) *AppConfig {
	cfg := defaults()
	// Load the config file if it exists, otherwise create one
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		if err := saveConfig(filePath, cfg); err != nil {
			panic(err)
		}
	} else if err := loadConfig(filePath, cfg); err != nil {
		panic(err)
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		glog.Warningf("invalid configuration in %s, using defaults: %v", filePath, err)
		return defaults()
	}
	return cfg
}

// Get returns a copy of the current configuration.
func Get() *AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	c := *instance
	return &c
}

// loadConfig loads the settings from the file
func loadConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("decode %s: %w", filePath, err)
	}
	return nil
}

// saveConfig saves the current settings to the file
func saveConfig(filePath string, cfg *AppConfig) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("SNAKE_SELFPATH"); v != "" {
		cfg.SelfPath = v
	}
	if v := os.Getenv("SNAKE_PORT"); v != "" {
		cfg.Port = v
	}
	ints := map[string]*int{
		"SNAKE_BLOCKSIZE":              &cfg.Blocksize,
		"SNAKE_GRIDSIZE":               &cfg.Gridsize,
		"SNAKE_SPEED_MAX":              &cfg.SpeedMax,
		"SNAKE_SPEED_MIN":              &cfg.SpeedMin,
		"SNAKE_SPEED_DECREMENT":        &cfg.SpeedDecrement,
		"SNAKE_SPEED_RANDOM_THRESHOLD": &cfg.SpeedRandomThreshold,
	}
	for key, dst := range ints {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			glog.Warningf("ignoring %s=%q: %v", key, v, err)
			continue
		}
		*dst = n
	}
	if v := os.Getenv("SNAKE_ENABLE_UTURN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.EnableUTurn = b
		}
	}
}

// reload re-reads the file into a fresh config and swaps it in.
func reload(filePath string) (*AppConfig, error) {
	cfg := defaults()
	if err := loadConfig(filePath, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("keeping previous configuration: %w", err)
	}
	mu.Lock()
	instance = cfg
	mu.Unlock()
	return Get(), nil
}

// Watch reloads the config file whenever it is written and passes the new
// configuration to onChange. It returns when done is closed.
func Watch(filePath string, done <-chan struct{}, onChange func(*AppConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// 监听目录而不是文件，编辑器保存时常常是替换文件
	if err := watcher.Add(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("watch %s: %w", filePath, err)
	}
	target := filepath.Clean(filePath)

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				cfg, err := reload(filePath)
				if err != nil {
					glog.Warningf("reload %s: %v", filePath, err)
					continue
				}
				glog.Infof("reloaded %s", filePath)
				onChange(cfg)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			glog.Warningf("config watcher: %v", err)
		}
	}
}

// GetConfigValue returns the value of the configuration by key
func GetConfigValue(key string) interface{} {
	cfg := Get()
	switch key {
	case "selfpath":
		return cfg.SelfPath
	case "port":
		return cfg.Port
	case "blocksize":
		return cfg.Blocksize
	case "gridsize":
		return cfg.Gridsize
	case "enable_uturn":
		return cfg.EnableUTurn
	default:
		return ""
	}
}
