package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli"

	"github.com/RichardKnop/taskengine"
	"github.com/RichardKnop/taskengine/config"
	"github.com/RichardKnop/taskengine/log"
	"github.com/RichardKnop/taskengine/tasks"

	exampletasks "github.com/RichardKnop/taskengine/example/tasks"
)

var (
	app         *cli.App
	configPath  string
	logFile     string
	metricsAddr string
)

func init() {
	// Initialise a CLI app
	app = cli.NewApp()
	app.Name = "taskengine"
	app.Usage = "send example tasks to an in-process task engine"
	app.Version = "0.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "c",
			Value:       "",
			Destination: &configPath,
			Usage:       "Path to a configuration file",
		},
		cli.StringFlag{
			Name:        "log-file",
			Value:       "",
			Destination: &logFile,
			Usage:       "Append logs to this file instead of stdout / stderr",
		},
	}
	app.Before = setupLogging
}

func setupLogging(c *cli.Context) error {
	if logFile == "" {
		return nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("Could not open log file: %s", err.Error())
	}
	log.SetOutput(f, f)
	return nil
}

func main() {
	// Set the CLI app commands
	app.Commands = []cli.Command{
		{
			Name:  "send",
			Usage: "send example tasks",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "metrics-addr",
					Value:       "",
					Destination: &metricsAddr,
					Usage:       "Keep serving metrics and task states on this address after sending",
				},
			},
			Action: func(c *cli.Context) error {
				if err := send(); err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				return nil
			},
		},
	}

	// Run the CLI app
	if err := app.Run(os.Args); err != nil {
		log.FATAL.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.NewFromYaml(configPath)
	}

	return config.NewFromEnvironment()
}

func startApp() (*taskengine.App, error) {
	cnf, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// Create app instance
	engine, err := taskengine.NewApp(cnf)
	if err != nil {
		return nil, err
	}

	// Register tasks
	return engine, engine.RegisterTasks(exampletasks.Tasks())
}

func send() error {
	engine, err := startApp()
	if err != nil {
		return err
	}
	defer engine.Close()

	/*
	 * First, let's try sending a single task
	 */
	log.INFO.Println("Single task:")

	add, err := engine.GetRegisteredTask("add")
	if err != nil {
		return err
	}

	asyncResult, err := add.Delay(1, 1)
	if err != nil {
		return fmt.Errorf("Could not send task: %s", err.Error())
	}

	result, err := asyncResult.Get(0)
	if err != nil {
		return fmt.Errorf("Getting task result failed with error: %s", err.Error())
	}
	log.INFO.Printf("1 + 1 = %v\n", result)

	// Send by name
	asyncResult, err = engine.SendTaskByName("multiply", []interface{}{2, 3, 4}, nil)
	if err != nil {
		return fmt.Errorf("Could not send task: %s", err.Error())
	}

	result, err = asyncResult.Get(0)
	if err != nil {
		return fmt.Errorf("Getting task result failed with error: %s", err.Error())
	}
	log.INFO.Printf("2 * 3 * 4 = %v\n", result)

	// A name nobody registered fails when read
	asyncResult, err = engine.SendTaskByName("missing", nil, nil)
	if err == nil {
		_, err = asyncResult.Get(0)
	}
	var notRegistered tasks.ErrTaskNotRegistered
	if !errors.As(err, &notRegistered) {
		return fmt.Errorf("Expected a not registered error, got %v", err)
	}
	log.INFO.Printf("Unregistered task returned error = %v\n", err)

	// Let's try a task which throws panic to make sure stack trace is not lost
	asyncResult, err = engine.SendTaskByName("panic_task", nil, nil)
	if err == nil {
		_, err = asyncResult.Get(0)
	}
	if err == nil {
		return errors.New("Error should not be nil if task panicked")
	}
	log.INFO.Printf("Task panicked and returned error = %v\n", err.Error())

	// Let's try a long running task, reading it with a short timeout first
	asyncResult, err = engine.SendTaskByName("long_running_task", nil, map[string]interface{}{"seconds": 2})
	if err != nil {
		return fmt.Errorf("Could not send task: %s", err.Error())
	}

	if _, err = asyncResult.GetWithTimeout(100*time.Millisecond, 0); err != nil {
		log.INFO.Printf("Long running task not ready yet: %v\n", err)
	}

	result, err = asyncResult.Get(0)
	if err != nil {
		return fmt.Errorf("Getting long running task result failed with error: %s", err.Error())
	}
	log.INFO.Printf("Long running task returned = %v\n", result)

	if metricsAddr != "" {
		log.INFO.Printf("Serving metrics and task states on %s", metricsAddr)
		return http.ListenAndServe(metricsAddr, newRouter(engine))
	}

	return nil
}
