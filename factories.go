package taskengine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	neturl "net/url"

	"github.com/RichardKnop/taskengine/config"

	eagerbroker "github.com/RichardKnop/taskengine/brokers/eager"
	brokeriface "github.com/RichardKnop/taskengine/brokers/iface"
	memorybroker "github.com/RichardKnop/taskengine/brokers/memory"

	backendiface "github.com/RichardKnop/taskengine/backends/iface"
	memcachebackend "github.com/RichardKnop/taskengine/backends/memcache"
	memorybackend "github.com/RichardKnop/taskengine/backends/memory"
	redisbackend "github.com/RichardKnop/taskengine/backends/redis"
)

// BrokerFactory creates a new object of iface.Broker. The eager broker is
// used when tasks should always run eagerly, the in-memory one otherwise.
func BrokerFactory(cnf *config.Config) (brokeriface.Broker, error) {
	if cnf.AlwaysEager {
		return eagerbroker.New(), nil
	}

	if cnf.QueueCapacity < 0 {
		return nil, fmt.Errorf("Queue capacity must not be negative, instead got %d", cnf.QueueCapacity)
	}

	return memorybroker.New(cnf.QueueCapacity), nil
}

// BackendFactory creates a new object of backends.Interface
// Currently supported backends are in-memory, Redis and Memcache
func BackendFactory(cnf *config.Config) (backendiface.Backend, error) {
	if cnf.ResultBackend == "" || strings.HasPrefix(cnf.ResultBackend, "memory://") {
		return memorybackend.New(), nil
	}

	if strings.HasPrefix(cnf.ResultBackend, "memcache://") {
		parts := strings.Split(cnf.ResultBackend, "memcache://")
		if len(parts) != 2 || parts[1] == "" {
			return nil, fmt.Errorf(
				"Memcache result backend connection string should be in format memcache://server1:port,server2:port, instead got %s",
				cnf.ResultBackend,
			)
		}
		servers := strings.Split(parts[1], ",")
		return memcachebackend.New(cnf, servers), nil
	}

	if strings.HasPrefix(cnf.ResultBackend, "redis://") || strings.HasPrefix(cnf.ResultBackend, "rediss://") {
		var scheme string
		if strings.HasPrefix(cnf.ResultBackend, "redis://") {
			scheme = "redis://"
		} else {
			scheme = "rediss://"
		}
		parts := strings.Split(cnf.ResultBackend, scheme)
		addrs := strings.Split(parts[1], ",")
		if len(addrs) > 1 {
			return redisbackend.NewGR(cnf, addrs, 0), nil
		}

		redisHost, redisPassword, redisDB, err := ParseRedisURL(cnf.ResultBackend)
		if err != nil {
			return nil, err
		}
		if redisPassword != "" {
			redisHost = redisPassword + "@" + redisHost
		}
		return redisbackend.NewGR(cnf, []string{redisHost}, redisDB), nil
	}

	return nil, fmt.Errorf("Factory failed with result backend: %v", cnf.ResultBackend)
}

// ParseRedisURL ...
func ParseRedisURL(url string) (host, password string, db int, err error) {
	// redis://pwd@host/db

	var u *neturl.URL
	u, err = neturl.Parse(url)
	if err != nil {
		return
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		err = errors.New("No redis scheme found")
		return
	}

	if u.User != nil {
		var exists bool
		password, exists = u.User.Password()
		if !exists {
			password = u.User.Username()
		}
	}

	host = u.Host

	parts := strings.Split(u.Path, "/")
	if len(parts) == 1 {
		db = 0 //default redis db
	} else {
		db, err = strconv.Atoi(parts[1])
		if err != nil {
			db, err = 0, nil //ignore err here
		}
	}

	return
}
