package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RichardKnop/taskengine/config"
)

func TestNewDefault(t *testing.T) {
	t.Parallel()

	cnf := config.NewDefault()
	assert.Equal(t, "memory://", cnf.ResultBackend)
	assert.Equal(t, 1, cnf.Concurrency)
	assert.Equal(t, 0, cnf.QueueCapacity)
	assert.False(t, cnf.AlwaysEager)
	assert.True(t, cnf.EagerPropagates)
	assert.False(t, cnf.IgnoreResult)
	assert.Equal(t, 3, cnf.Redis.MaxIdle)

	// Copies must not share nested structs
	other := config.NewDefault()
	other.Redis.MaxIdle = 99
	assert.Equal(t, 3, cnf.Redis.MaxIdle)
}

func TestResultPollInterval(t *testing.T) {
	t.Parallel()

	cnf := config.NewDefault()
	assert.Equal(t, 10*time.Millisecond, cnf.ResultPollInterval())

	cnf.ResultPollPeriod = 250
	assert.Equal(t, 250*time.Millisecond, cnf.ResultPollInterval())

	cnf.ResultPollPeriod = -1
	assert.Equal(t, 10*time.Millisecond, cnf.ResultPollInterval())
}

func TestResultsExpiration(t *testing.T) {
	t.Parallel()

	cnf := &config.Config{}
	assert.Equal(t, time.Hour, cnf.ResultsExpiration())

	cnf.ResultsExpireIn = 60
	assert.Equal(t, time.Minute, cnf.ResultsExpiration())
}
