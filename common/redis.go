package common

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RichardKnop/taskengine/config"
)

// NewRedisOptions builds go-redis client options out of the parsed
// connection string and the redis section of the config
func NewRedisOptions(addrs []string, password string, db int, cnf *config.RedisConfig) *redis.UniversalOptions {
	if cnf == nil {
		cnf = config.NewDefault().Redis
	}
	return &redis.UniversalOptions{
		Addrs:        addrs,
		DB:           db,
		Password:     password,
		MasterName:   cnf.MasterName,
		MaxIdleConns: cnf.MaxIdle,
		ReadTimeout:  time.Duration(cnf.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cnf.WriteTimeout) * time.Second,
		DialTimeout:  time.Duration(cnf.ConnectTimeout) * time.Second,
	}
}
