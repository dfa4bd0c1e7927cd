package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/multierr"

	"github.com/lowaak/tabata-timer/internal/config"
	"github.com/lowaak/tabata-timer/internal/gpio"
	"github.com/lowaak/tabata-timer/internal/logging"
	"github.com/lowaak/tabata-timer/internal/mqtt"
	"github.com/lowaak/tabata-timer/internal/program"
	"github.com/lowaak/tabata-timer/internal/timer"
)

const (
	uiLogBufferLines  = 256
	mqttQueueCapacity = 64
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) (err error) {
	uiLogChan := make(chan string, uiLogBufferLines)
	logger, logCloser, err := logging.Setup(logging.LoggerSetupParams{
		LogFileName: cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		UILines:     uiLogChan,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { err = multierr.Append(err, logCloser.Close()) }()

	logger.Printf("Tabata timer starting (tick %s)", cfg.TickInterval)

	registry := program.DefaultRegistry()
	if cfg.ProgramsFile != "" {
		added, err := registry.LoadFile(cfg.ProgramsFile)
		if err != nil {
			logger.Printf("Programs file: %v", err)
		}
		logger.Printf("Loaded %d programs from %s", added, cfg.ProgramsFile)
	}

	model := timer.NewUIModel(logger, uiLogChan, cfg.StateDir)
	defer model.Shutdown()
	model.SetPrograms(timer.SummarizePrograms(registry.All()))

	sessionManager := timer.NewSessionManager(timer.NewSessionManagerArgs{
		Model:        model,
		Logger:       logger,
		Defaults:     cfg.Intervals.Defaults(),
		TickInterval: cfg.TickInterval,
	})
	controller := timer.NewUIController(model, sessionManager, logger)
	defer controller.Shutdown()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	app := tview.NewApplication().SetScreen(screen)

	sessionManager.ListenToSignals(timer.NewBeepSink(screen, logger))

	if cfg.MQTT.Enabled {
		publisher, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic)
		if err != nil {
			logger.Printf("MQTT: disabled: %v", err)
		} else {
			asyncPublisher := mqtt.NewAsyncPublisher(publisher, logger, mqttQueueCapacity)
			defer closeAndLog(logger, "MQTT publisher", asyncPublisher.Close)
			sessionManager.ListenToSignals(timer.NewMQTTSink(asyncPublisher))
			logger.Printf("MQTT: publishing to %s on %s", cfg.MQTT.Topic, cfg.MQTT.Broker)
		}
	}

	if cfg.GPIO.Enabled {
		buzzer, err := gpio.NewRealBuzzer(cfg.GPIO.Chip, cfg.GPIO.Line)
		if err != nil {
			logger.Printf("GPIO: buzzer disabled: %v", err)
		} else {
			defer closeAndLog(logger, "GPIO buzzer", buzzer.Close)
			sessionManager.ListenToSignals(timer.NewBuzzerSink(buzzer, logger))
			logger.Printf("GPIO: buzzer on %s line %d", cfg.GPIO.Chip, cfg.GPIO.Line)
		}
	}

	initialID := cfg.Program
	if initialID != "" {
		if _, err := registry.FindProgram(initialID); err != nil {
			logger.Printf("Startup program: %v", err)
			initialID = ""
		}
	}
	controller.SelectInitialProgram(initialID, model.GetLastProgramID())

	view := timer.NewCursesUIView(logger, app, model)
	baseView := timer.NewBaseUIView(timer.NewBaseUIViewArg{
		UIViewImpl:   view,
		UIModel:      model,
		UIController: controller,
		Logger:       logger,
	})
	defer baseView.Shutdown()
	// stop the clock before the sinks deferred above are closed
	defer controller.Shutdown()

	if err := baseView.Run(); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	logger.Println("Tabata timer exiting")
	return nil
}

func closeAndLog(logger *log.Logger, name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Printf("%s: close failed: %v", name, err)
	}
}
