package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"
	"tinygo.org/x/bluetooth"

	"github.com/lowaak/mapty/internal/app"
	"github.com/lowaak/mapty/internal/bt"
	"github.com/lowaak/mapty/internal/config"
	"github.com/lowaak/mapty/internal/geo"
	"github.com/lowaak/mapty/internal/mapview"
	"github.com/lowaak/mapty/internal/persistence"
	"github.com/lowaak/mapty/internal/store"
	"github.com/lowaak/mapty/internal/workout"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	must("create log directory", os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755))
	logFile := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}
	defer logFile.Close()

	// Log lines go to the rotated file and to the in-app log pane
	uiLogChan := make(chan string, 100)
	logger := log.New(io.MultiWriter(logFile, app.NewChannelWriter(uiLogChan)), "", log.Ltime)
	logger.Printf("Mapty starting (store=%s, position=%s)", cfg.Store.Backend, cfg.Position.Source)

	kv, closeStore := openStore(cfg.Store, logger)
	defer closeStore()

	tviewApp := tview.NewApplication()
	uiQueue := app.NewUIQueue(tviewApp)

	mapWidget := app.NewMapWidget(logger, cfg.Map.Attribution, uiQueue.UpdateDraw)
	uiModel := app.NewUIModel(logger, uiLogChan)
	uiController := app.NewUIController(app.NewUIControllerArg{
		Model:       uiModel,
		MapView:     mapview.NewController(mapWidget, logger),
		Persistence: persistence.NewStore(kv, logger),
		Positions:   positionProvider(cfg.Position, logger),
		Dispatch:    uiQueue.UpdateDraw,
		Logger:      logger,
	})
	baseView := app.NewBaseUIView(app.NewBaseUIViewArg{
		UIViewImpl:   app.NewCursesUIView(logger, tviewApp, uiQueue, mapWidget),
		UIModel:      uiModel,
		UIController: uiController,
		Logger:       logger,
	})

	uiController.Start()
	runErr := baseView.Run()

	baseView.Shutdown()
	uiController.Shutdown()
	uiModel.Shutdown()

	if runErr != nil {
		logger.Printf("UI stopped with error: %v", runErr)
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
	logger.Printf("Mapty stopped")
}

func openStore(cfg config.StoreConfig, logger *log.Logger) (store.KeyValueStore, func()) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), func() {}
	case config.BackendValkey:
		kv, err := store.NewValkeyStore(cfg.ValkeyAddr, cfg.ValkeyPrefix)
		must("connect to valkey at "+cfg.ValkeyAddr, err)
		return kv, kv.Close
	default:
		return store.NewFileStore(cfg.Path, logger), func() {}
	}
}

func positionProvider(cfg config.PositionConfig, logger *log.Logger) geo.PositionProvider {
	switch cfg.Source {
	case config.SourceFixed:
		return geo.FixedProvider{Position: workout.Coords{Lat: cfg.Lat, Lng: cfg.Lng}}
	case config.SourceBLE:
		return bt.NewLocationProvider(bluetooth.DefaultAdapter, logger, cfg.Timeout)
	default:
		return geo.UnavailableProvider{Reason: "position source disabled"}
	}
}

func must(action string, err error) {
	if err != nil {
		panic("failed to " + action + ": " + err.Error())
	}
}
