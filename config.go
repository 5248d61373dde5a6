package hxfaces

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm/hxfaces/lib/store"
)

// StateSaving selects where saved view state lives between requests.
type StateSaving string

const (
	// StateSavingClient round-trips the encoded state through the page.
	StateSavingClient StateSaving = "client"
	// StateSavingServer keeps the state in a Store and sends only a token.
	StateSavingServer StateSaving = "server"
)

// ProjectStage tunes diagnostics. Development turns duplicate ids into errors.
type ProjectStage string

const (
	Development ProjectStage = "Development"
	Production  ProjectStage = "Production"
)

// DefaultMaxEventLoops bounds how many times BroadcastEvents re-drains the
// queue when listeners keep queuing new events.
const DefaultMaxEventLoops = 15

// Config holds the application-wide settings.
//
// It can be loaded from YAML:
//
//	separator: ":"
//	maxEventLoops: 15
//	stateSaving: server
//	partialStateSaving: true
//	projectStage: Production
//	serverStatePath: /var/lib/app/views.db
type Config struct {
	Separator          string       `yaml:"separator"`
	MaxEventLoops      int          `yaml:"maxEventLoops"`
	StateSaving        StateSaving  `yaml:"stateSaving"`
	PartialStateSaving bool         `yaml:"partialStateSaving"`
	ProjectStage       ProjectStage `yaml:"projectStage"`
	StateKey           string       `yaml:"stateKey"`
	SensitiveState     bool         `yaml:"sensitiveState"`
	ServerStatePath    string       `yaml:"serverStatePath"`
	ServerStateLimit   int          `yaml:"serverStateLimit"`
	ViewPrefix         string       `yaml:"viewPrefix"`

	// Store holds server-side state. Without one, server state saving opens
	// a BoltStore at ServerStatePath, or keeps state in memory.
	Store store.Store `yaml:"-"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Separator:          ":",
		MaxEventLoops:      DefaultMaxEventLoops,
		StateSaving:        StateSavingClient,
		PartialStateSaving: true,
		ProjectStage:       Production,
		ServerStateLimit:   20,
		ViewPrefix:         "/",
	}
}

// ParseConfig reads YAML on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("hxfaces: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("hxfaces: read config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks the settings for values the lifecycle cannot work with.
func (c Config) Validate() error {
	if len(c.Separator) != 1 {
		return fmt.Errorf("hxfaces: separator must be a single character, got %q", c.Separator)
	}
	if c.MaxEventLoops < 1 {
		return fmt.Errorf("hxfaces: maxEventLoops must be positive, got %d", c.MaxEventLoops)
	}
	switch c.StateSaving {
	case StateSavingClient, StateSavingServer:
	default:
		return fmt.Errorf("hxfaces: unknown stateSaving %q", c.StateSaving)
	}
	switch c.ProjectStage {
	case Development, Production:
	default:
		return fmt.Errorf("hxfaces: unknown projectStage %q", c.ProjectStage)
	}
	return nil
}

// Option configures an Application.
type Option func(*Config)

// WithSeparator sets the naming-container separator character.
func WithSeparator(sep string) Option {
	return func(c *Config) { c.Separator = sep }
}

// WithMaxEventLoops sets the re-broadcast bound.
func WithMaxEventLoops(n int) Option {
	return func(c *Config) { c.MaxEventLoops = n }
}

// WithStateSaving selects client or server state saving.
func WithStateSaving(s StateSaving) Option {
	return func(c *Config) { c.StateSaving = s }
}

// WithPartialStateSaving toggles delta state saving.
func WithPartialStateSaving(on bool) Option {
	return func(c *Config) { c.PartialStateSaving = on }
}

// WithProjectStage sets the project stage.
func WithProjectStage(s ProjectStage) Option {
	return func(c *Config) { c.ProjectStage = s }
}

// WithStateKey sets the secret used to sign or encrypt client state.
func WithStateKey(key string) Option {
	return func(c *Config) { c.StateKey = key }
}

// WithStore sets the store used by server state saving.
func WithStore(s store.Store) Option {
	return func(c *Config) { c.Store = s }
}

// WithConfig replaces the whole config.
func WithConfig(cfg Config) Option {
	return func(c *Config) { *c = cfg }
}
