package config

import (
	"time"
)

const (
	// DefaultResultsExpireIn is a default time in seconds used to expire task states in external backends
	DefaultResultsExpireIn = 3600
	// DefaultResultPollPeriod is a default period in milliseconds between two backend reads
	// done by AsyncResult when the backend cannot notify about completion
	DefaultResultPollPeriod = 10
)

var (
	// Start with sensible default values
	defaultCnf = &Config{
		ResultBackend:    "memory://",
		ResultsExpireIn:  DefaultResultsExpireIn,
		Concurrency:      1,
		ResultPollPeriod: DefaultResultPollPeriod,
		EagerPropagates:  true,
		Redis: &RedisConfig{
			MaxIdle:        3,
			ReadTimeout:    15,
			WriteTimeout:   15,
			ConnectTimeout: 15,
		},
	}
)

// Config holds all configuration for the task engine
type Config struct {
	ResultBackend   string `yaml:"result_backend" envconfig:"RESULT_BACKEND"`
	ResultsExpireIn int    `yaml:"results_expire_in" envconfig:"RESULTS_EXPIRE_IN"`

	// Concurrency is the number of dispatcher workers. One worker keeps
	// submission order equal to execution order.
	Concurrency int `yaml:"concurrency" envconfig:"CONCURRENCY"`
	// QueueCapacity bounds the dispatcher queue, publishing blocks when it is
	// full. Zero means unbounded.
	QueueCapacity    int `yaml:"queue_capacity" envconfig:"QUEUE_CAPACITY"`
	ResultPollPeriod int `yaml:"result_poll_period" envconfig:"RESULT_POLL_PERIOD"`

	// AlwaysEager runs every task synchronously on the submitting goroutine
	AlwaysEager bool `yaml:"always_eager" envconfig:"ALWAYS_EAGER"`
	// EagerPropagates returns task failures directly from submission in eager mode
	EagerPropagates bool `yaml:"eager_propagates" envconfig:"EAGER_PROPAGATES"`
	// IgnoreResult disables storing outcomes for every task
	IgnoreResult bool `yaml:"ignore_result" envconfig:"IGNORE_RESULT"`

	Redis *RedisConfig `yaml:"redis"`
}

// RedisConfig wraps Redis result backend related configuration
type RedisConfig struct {
	// Maximum number of idle connections in the pool.
	// Default: 3
	MaxIdle int `yaml:"max_idle" envconfig:"REDIS_MAX_IDLE"`

	// ReadTimeout specifies the timeout in seconds for reading a single command reply.
	// Default: 15
	ReadTimeout int `yaml:"read_timeout" envconfig:"REDIS_READ_TIMEOUT"`

	// WriteTimeout specifies the timeout in seconds for writing a single command.
	// Default: 15
	WriteTimeout int `yaml:"write_timeout" envconfig:"REDIS_WRITE_TIMEOUT"`

	// ConnectTimeout specifies the timeout in seconds for connecting to the Redis server.
	// Default: 15
	ConnectTimeout int `yaml:"connect_timeout" envconfig:"REDIS_CONNECT_TIMEOUT"`

	// MasterName specifies a redis master name in order to configure a sentinel-backed redis FailoverClient
	MasterName string `yaml:"master_name" envconfig:"REDIS_MASTER_NAME"`
}

// NewDefault returns a copy of the default configuration
func NewDefault() *Config {
	cnf := new(Config)
	*cnf = *defaultCnf
	redisCnf := *defaultCnf.Redis
	cnf.Redis = &redisCnf
	return cnf
}

// ResultPollInterval returns ResultPollPeriod as a duration, falling back
// to the default for non-positive values
func (cnf *Config) ResultPollInterval() time.Duration {
	if cnf.ResultPollPeriod <= 0 {
		return DefaultResultPollPeriod * time.Millisecond
	}
	return time.Duration(cnf.ResultPollPeriod) * time.Millisecond
}

// ResultsExpiration returns ResultsExpireIn as a duration, falling back
// to the default for non-positive values
func (cnf *Config) ResultsExpiration() time.Duration {
	if cnf.ResultsExpireIn <= 0 {
		return DefaultResultsExpireIn * time.Second
	}
	return time.Duration(cnf.ResultsExpireIn) * time.Second
}
