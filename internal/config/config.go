// Package config provides Viper-based configuration loading for the tactics engine host.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// RulesConfig holds the tunable constants of the rules engine.
type RulesConfig struct {
	// CounterDelay is how long a queued counter-attack waits before re-validation.
	CounterDelay time.Duration `mapstructure:"counter_delay"`
	// EffectLifetime is how long a resolved attack effect stays visible before removal.
	EffectLifetime time.Duration `mapstructure:"effect_lifetime"`
	// CritMultiplier applies to crits when the attack does not set its own.
	CritMultiplier float64 `mapstructure:"crit_multiplier"`
	// FireTurns is the duration of tile ignition started by an attack.
	FireTurns int `mapstructure:"fire_turns"`
	// ExpPerLevel is the experience needed for each level-up.
	ExpPerLevel int `mapstructure:"exp_per_level"`
}

// AIConfig holds enemy decision tuning.
type AIConfig struct {
	// LethalScore is the score a certain kill earns, scaled by hit chance.
	LethalScore float64 `mapstructure:"lethal_score"`
	// WispPenalty is the score subtracted per point of wisp an option costs.
	WispPenalty float64 `mapstructure:"wisp_penalty"`
	// ThinkInterval is the minimum time between two enemy actions.
	ThinkInterval time.Duration `mapstructure:"think_interval"`
}

// ContentConfig locates the data the host loads at startup.
type ContentConfig struct {
	RulesetDir string `mapstructure:"ruleset_dir"`
	ScriptsDir string `mapstructure:"scripts_dir"`
	Scenario   string `mapstructure:"scenario"`
	// InstructionLimit caps Lua opcodes per hook call; 0 uses the scripting default.
	InstructionLimit int `mapstructure:"instruction_limit"`
}

// SimulationConfig drives the headless host loop.
type SimulationConfig struct {
	// Frame is the time advanced per simulated tick.
	Frame time.Duration `mapstructure:"frame"`
	// MaxRounds bounds the simulation; the battle is a draw when it is reached.
	MaxRounds int `mapstructure:"max_rounds"`
	// Seed selects a reproducible dice stream; 0 uses crypto randomness.
	Seed uint64 `mapstructure:"seed"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Rules      RulesConfig      `mapstructure:"rules"`
	AI         AIConfig         `mapstructure:"ai"`
	Content    ContentConfig    `mapstructure:"content"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRules(c.Rules); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAI(c.AI); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateRules(r RulesConfig) error {
	var errs []string
	if r.CounterDelay < 0 {
		errs = append(errs, "rules.counter_delay must not be negative")
	}
	if r.EffectLifetime < 0 {
		errs = append(errs, "rules.effect_lifetime must not be negative")
	}
	if r.CritMultiplier < 1 {
		errs = append(errs, fmt.Sprintf("rules.crit_multiplier must be >= 1, got %v", r.CritMultiplier))
	}
	if r.FireTurns < 1 {
		errs = append(errs, fmt.Sprintf("rules.fire_turns must be >= 1, got %d", r.FireTurns))
	}
	if r.ExpPerLevel < 1 {
		errs = append(errs, fmt.Sprintf("rules.exp_per_level must be >= 1, got %d", r.ExpPerLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateAI(a AIConfig) error {
	var errs []string
	if a.LethalScore <= 0 {
		errs = append(errs, fmt.Sprintf("ai.lethal_score must be > 0, got %v", a.LethalScore))
	}
	if a.WispPenalty < 0 {
		errs = append(errs, fmt.Sprintf("ai.wisp_penalty must be >= 0, got %v", a.WispPenalty))
	}
	if a.ThinkInterval < 0 {
		errs = append(errs, "ai.think_interval must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	if c.RulesetDir == "" {
		return errors.New("content.ruleset_dir must not be empty")
	}
	if c.InstructionLimit < 0 {
		return fmt.Errorf("content.instruction_limit must be >= 0, got %d", c.InstructionLimit)
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.Frame <= 0 {
		errs = append(errs, "simulation.frame must be > 0")
	}
	if s.MaxRounds < 1 {
		errs = append(errs, fmt.Sprintf("simulation.max_rounds must be >= 1, got %d", s.MaxRounds))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with SRPG_ prefix
	v.SetEnvPrefix("SRPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration produced by the defaults alone.
//
// Postcondition: the result passes Validate.
func Default() Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadFromViper(v)
	if err != nil {
		panic("config.Default: defaults do not validate: " + err.Error())
	}
	return cfg
}

// SetDefaults installs every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("rules.counter_delay", "400ms")
	v.SetDefault("rules.effect_lifetime", "500ms")
	v.SetDefault("rules.crit_multiplier", 2.0)
	v.SetDefault("rules.fire_turns", 3)
	v.SetDefault("rules.exp_per_level", 100)

	v.SetDefault("ai.lethal_score", 1000.0)
	v.SetDefault("ai.wisp_penalty", 2.0)
	v.SetDefault("ai.think_interval", "250ms")

	v.SetDefault("content.ruleset_dir", "content/ruleset")
	v.SetDefault("content.scripts_dir", "content/scripts")
	v.SetDefault("content.scenario", "content/scenarios/ambush.yaml")
	v.SetDefault("content.instruction_limit", 0)

	v.SetDefault("simulation.frame", "50ms")
	v.SetDefault("simulation.max_rounds", 30)
	v.SetDefault("simulation.seed", 0)
}
