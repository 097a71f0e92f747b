package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/RichardKnop/taskengine/log"
)

// NewFromEnvironment creates a config object from environment variables.
// Variables that are not set keep their default values.
func NewFromEnvironment() (*Config, error) {
	cnf, err := fromEnvironment()
	if err != nil {
		return nil, err
	}

	log.INFO.Print("Successfully loaded config from the environment")

	return cnf, nil
}

func fromEnvironment() (*Config, error) {
	cnf := NewDefault()
	if err := envconfig.Process("", cnf); err != nil {
		return nil, errors.Wrap(err, "process environment")
	}
	return cnf, nil
}
