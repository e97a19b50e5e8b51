package main

import (
	"chat-relay/queue"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run starts a fixed pool of supervised dispatch workers, one per available
// CPU unless configured otherwise, and blocks until a signal arrives. A
// worker that panics or errors is logged and respawned by the supervisor;
// the pool size stays constant for the life of the process.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	workerCount := config.NumberOfWorkers
	if workerCount == 0 {
		workerCount = runtime.NumCPU()
	}

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Notification queue (consumer side)
	notifications, err := queue.NewRedisQueue(ctx, config.RedisURL, config.NotificationsQueue, log)
	if err != nil {
		return fmt.Errorf("queue connection failed: %w", err)
	}
	defer func() {
		log.Info("Closing Redis queue...")
		_ = notifications.Close()
	}()

	// 4. Supervised worker pool
	deliveries := sink.NewDeliverySink(log)
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	for i := 0; i < workerCount; i++ {
		supervisor.Add(workers.NewDispatchWorker(notifications, deliveries, config.PollInterval, log))
	}

	log.Info("Starting notification dispatchers", "workers", workerCount)
	supervisor.Run(ctx)

	log.Info("Program stopped cleanly", "processed", deliveries.Processed())
	return nil
}
