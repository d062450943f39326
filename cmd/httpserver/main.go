package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pershin-daniil/MeetBot/internal/rest"
	"github.com/pershin-daniil/MeetBot/pkg/config"
	"github.com/pershin-daniil/MeetBot/pkg/directory"
	"github.com/pershin-daniil/MeetBot/pkg/logger"
	"github.com/pershin-daniil/MeetBot/pkg/notifier"
	"github.com/pershin-daniil/MeetBot/pkg/service"
	"github.com/pershin-daniil/MeetBot/pkg/store"
	"github.com/pershin-daniil/MeetBot/pkg/worker"
	migrate "github.com/rubenv/sql-migrate"
)

const version = "0.1.0"

// httpserver runs the scheduling API without the chat front-end. Invitations
// are written to the log.
func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger().Fatal(err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st, err := store.New(ctx, log, cfg.DSN)
	if err != nil {
		log.Panic(err)
	}
	defer st.Close()
	if err = st.Migrate(migrate.Up); err != nil {
		log.Panic(err)
	}
	users, err := config.LoadUsers(cfg.UsersFile)
	if err != nil {
		log.Panic(err)
	}
	dir, err := directory.New(users)
	if err != nil {
		log.Panic(err)
	}
	app := service.NewScheduleService(log, st, dir)
	sweeper := worker.NewSweeper(log, st)
	if err = sweeper.Start(ctx, cfg.CleanupInterval); err != nil {
		log.Panic(err)
	}
	go worker.New(log, st, notifier.New(log)).Run(ctx, cfg.NotifyInterval)

	server, err := rest.NewServer(log, app, dir, sweeper, rest.Options{
		Address:  cfg.Address,
		Version:  version,
		KeyFile:  cfg.JWTKeyFile,
		TokenTTL: cfg.TokenTTL,
		Workdays: cfg.WorkdayCount,
		Checks:   map[string]rest.Pinger{"store": st},
	})
	if err != nil {
		log.Panic(err)
	}
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
		<-sigCh
		log.Info("Received signal, shutting down...")
		cancel()
	}()
	if err = server.Run(ctx); err != nil {
		log.Panic(err)
	}
	sweeper.Stop()
	sweeper.Wait()
	log.Info("Server stopped")
}
