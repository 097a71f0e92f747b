package exampletasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/RichardKnop/taskengine/log"
	"github.com/RichardKnop/taskengine/tasks"
)

// Add ...
func Add(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	sum := int64(0)
	for _, arg := range args {
		i, err := toInt64(arg)
		if err != nil {
			return nil, err
		}
		sum += i
	}
	return sum, nil
}

// Multiply ...
func Multiply(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	product := int64(1)
	for _, arg := range args {
		i, err := toInt64(arg)
		if err != nil {
			return nil, err
		}
		product *= i
	}
	return product, nil
}

// PanicTask ...
func PanicTask(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	panic(errors.New("oops"))
}

// LongRunningTask counts down the "seconds" kwarg, 3 by default
func LongRunningTask(req *tasks.Request, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	seconds := int64(3)
	if v, ok := kwargs["seconds"]; ok {
		i, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		seconds = i
	}

	log.INFO.Printf("Long running task %s started", req.ID)
	for i := seconds; i > 0; i-- {
		log.INFO.Print(i)
		select {
		case <-time.After(time.Second):
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}
	log.INFO.Printf("Long running task %s finished", req.ID)
	return "done", nil
}

// Tasks returns all example tasks by name
func Tasks() map[string]tasks.Callable {
	return map[string]tasks.Callable{
		"add":               tasks.Unbound(Add),
		"multiply":          tasks.Unbound(Multiply),
		"panic_task":        tasks.Unbound(PanicTask),
		"long_running_task": tasks.Bound(LongRunningTask),
	}
}

func toInt64(v interface{}) (int64, error) {
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	}
	return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
}
