// Package config loads and validates the assignment engine's
// configuration: an optional YAML file overlaid with CLI flags, the way
// the teacher's configuration layer loads a YAML file and validates it
// with go-playground/validator.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// RatingInputType selects how ratings are encoded in the input JSON.
type RatingInputType string

const (
	// RatingInputMapping decodes a map[string]int of group id to priority.
	RatingInputMapping RatingInputType = "mapping"
	// RatingInputOrderedList decodes an ordered []string of group ids,
	// best first, assigning priorities by position.
	RatingInputOrderedList RatingInputType = "ordered_list"
)

// Config is the complete set of tunables for one assignment run.
type Config struct {
	Verbosity  uint32 `yaml:"verbosity" validate:"max=5"`
	RandomSeed uint64 `yaml:"randomSeed"`

	RatingInputType RatingInputType `yaml:"ratingInputType" validate:"omitempty,oneof=mapping ordered_list"`
	OutputPerTeam   bool            `yaml:"outputPerTeam"`
	InputPerTeam    bool            `yaml:"inputPerTeam"`

	DisabledGroupsPerStep           int     `yaml:"disabledGroupsPerStep" validate:"min=1"`
	TypeSpecificAssignmentThreshold uint32  `yaml:"typeSpecificAssignmentThreshold"`
	GroupDisableThreshold           int     `yaml:"groupDisableThreshold" validate:"min=1"`
	MaxTeamSize                     int     `yaml:"maxTeamSize" validate:"min=1"`
	MaxGroupSize                    int     `yaml:"maxGroupSize" validate:"omitempty,min=1"`
	AllowDefaultRatings             bool    `yaml:"allowDefaultRatings"`
	UseMinGroupSizes                bool    `yaml:"useMinGroupSizes"`
	MinGroupSizeEffect              int     `yaml:"minGroupSizeEffect" validate:"min=1,max=5"`
	CapacityBufferFactor            float64 `yaml:"capacityBufferFactor" validate:"gt=1"`
	EdgeSparsification              bool    `yaml:"edgeSparsification"`
}

// Default returns the configuration with every field set to the documented
// default, matching the original Config singleton's initializers.
func Default() Config {
	return Config{
		Verbosity:                       3,
		RandomSeed:                      7,
		RatingInputType:                 RatingInputMapping,
		OutputPerTeam:                   false,
		InputPerTeam:                    false,
		DisabledGroupsPerStep:           3,
		TypeSpecificAssignmentThreshold: 0,
		GroupDisableThreshold:           5,
		MaxTeamSize:                     5,
		MaxGroupSize:                    0,
		AllowDefaultRatings:             false,
		UseMinGroupSizes:                true,
		MinGroupSizeEffect:              3,
		CapacityBufferFactor:            1.05,
		EdgeSparsification:              true,
	}
}

var validate = validator.New()

// LoadFromPath reads a YAML config file at path, overlaying it onto
// Default(), and validates the result.
func LoadFromPath(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: failed to read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to parse %q: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every struct tag constraint, mirroring Config::check() in
// the original implementation.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}
