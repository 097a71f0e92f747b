package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/RichardKnop/taskengine/log"
)

// NewFromYaml creates a config object from YAML file. Keys missing from the
// file keep their default values.
func NewFromYaml(cnfPath string) (*Config, error) {
	cnf, err := fromFile(cnfPath)
	if err != nil {
		return nil, err
	}

	log.INFO.Printf("Successfully loaded config from file %s", cnfPath)

	return cnf, nil
}

// ReadFromFile reads data from a file
func ReadFromFile(cnfPath string) ([]byte, error) {
	data, err := ioutil.ReadFile(cnfPath)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	return data, nil
}

func fromFile(cnfPath string) (*Config, error) {
	data, err := ReadFromFile(cnfPath)
	if err != nil {
		return nil, err
	}

	cnf := NewDefault()
	if err := yaml.Unmarshal(data, cnf); err != nil {
		return nil, errors.Wrap(err, "unmarshal YAML")
	}

	return cnf, nil
}
