package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hearthvm/hearth/pkg/api"
	"github.com/hearthvm/hearth/pkg/audio"
	"github.com/hearthvm/hearth/pkg/engines/sandbox"
	"github.com/hearthvm/hearth/pkg/event"
	"github.com/hearthvm/hearth/pkg/gamefs"
	"github.com/hearthvm/hearth/pkg/log"
	"github.com/hearthvm/hearth/pkg/save"
	"github.com/hearthvm/hearth/pkg/session"
	"github.com/hearthvm/hearth/pkg/timer"
	"github.com/hearthvm/hearth/pkg/version"
	"github.com/hearthvm/hearth/pkg/workers"
)

func main() {
	target := flag.String("target", "sandbox", "Game target to run")
	gameDataDir := flag.String("game-data", "", "Path to the game data directory")
	saveStore := flag.String("save-store", "sqlite", "Save store backend (sqlite, postgres, memory)")
	savePath := flag.String("save-path", "hearth-saves.db", "Path to the sqlite save database")
	apiPort := flag.Int("api-port", 8880, "Port for the control API")
	autosaveInterval := flag.Duration("autosave-interval", 5*time.Minute, "Autosave interval (negative disables)")
	withAudio := flag.Bool("audio", false, "Enable audio output")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting hearth version %s", version.Get())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var gameData gamefs.Node
	if *gameDataDir != "" {
		gameData, err = gamefs.NewGameDataDir(*gameDataDir)
		if err != nil {
			panic(fmt.Sprintf("Failed to open game data: %v", err))
		}
	}

	saves, err := newSaveManager(ctx, *saveStore, *savePath)
	if err != nil {
		panic(fmt.Sprintf("Failed to create save store: %v", err))
	}

	var mixer audio.Mixer
	if *withAudio {
		beepMixer, err := audio.NewBeepMixer()
		if err != nil {
			panic(fmt.Sprintf("Failed to initialize audio: %v", err))
		}
		mixer = beepMixer
	} else {
		mixer = audio.NewSoftwareMixer()
	}

	events := event.NewInMemoryManager(1000)
	timers := timer.NewService()

	eng, err := sandbox.NewEngine(sandbox.NewEngineOptions{
		Target:           *target,
		GameData:         gameData,
		Mixer:            mixer,
		Timers:           timers,
		Events:           events,
		Saves:            saves,
		AutosaveInterval: *autosaveInterval,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create engine: %v", err))
	}

	sess, err := session.NewSession(session.NewSessionOptions{
		Target: *target,
		Engine: eng,
		Events: events,
		Saves:  saves,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create session: %v", err))
	}
	if err := session.Activate(sess); err != nil {
		panic(fmt.Sprintf("Failed to activate session: %v", err))
	}
	defer session.Deactivate(sess)
	defer sess.Close(ctx)

	autosaveWorker := workers.NewAutosaveWorker(workers.NewAutosaveWorkerOptions{
		Autosaver: sess,
	})
	go autosaveWorker.Start(ctx)

	apiServer := api.NewAPIServer(api.NewAPIServerOptions{
		Port:       *apiPort,
		Controller: sess,
	})
	go apiServer.Start()
	defer apiServer.Stop(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("Received %s, requesting quit", sig)
		sess.Quit()
	}()

	log.Info("Starting session for target %s", *target)
	if err := sess.Run(ctx); err != nil {
		log.Error("Session failed: %v", err)
		os.Exit(1)
	}
}

func newSaveManager(ctx context.Context, store, path string) (save.Manager, error) {
	switch store {
	case "sqlite":
		return save.NewSQLiteManager(ctx, path)
	case "postgres":
		connStr := os.Getenv("DATABASE_URL")
		if connStr == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable must be set")
		}
		return save.NewPostgresManager(ctx, connStr)
	case "memory":
		return save.NewMemoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown save store %q", store)
	}
}
