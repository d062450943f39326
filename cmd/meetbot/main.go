package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pershin-daniil/MeetBot/internal/calendar"
	"github.com/pershin-daniil/MeetBot/internal/rest"
	"github.com/pershin-daniil/MeetBot/internal/session"
	"github.com/pershin-daniil/MeetBot/internal/telegram"
	"github.com/pershin-daniil/MeetBot/pkg/config"
	"github.com/pershin-daniil/MeetBot/pkg/directory"
	"github.com/pershin-daniil/MeetBot/pkg/events"
	"github.com/pershin-daniil/MeetBot/pkg/logger"
	"github.com/pershin-daniil/MeetBot/pkg/notifier"
	"github.com/pershin-daniil/MeetBot/pkg/service"
	"github.com/pershin-daniil/MeetBot/pkg/store"
	"github.com/pershin-daniil/MeetBot/pkg/worker"
	"github.com/redis/go-redis/v9"
	migrate "github.com/rubenv/sql-migrate"
)

const version = "0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger().Fatal(err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
		<-sigCh
		log.Info("Received signal, shutting down...")
		cancel()
	}()

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

	checks := map[string]rest.Pinger{"store": st}
	var (
		observers       []service.Observer
		deleteObservers []worker.DeletionObserver
	)
	if cfg.KafkaBrokers != "" {
		publisher, err := events.NewPublisher(log, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Panic(err)
		}
		defer publisher.Close()
		observers = append(observers, publisher)
		deleteObservers = append(deleteObservers, publisher)
	}
	if cfg.GoogleCredsFile != "" && cfg.GoogleCalendarID != "" {
		mirror, err := calendar.New(ctx, log, cfg.GoogleCredsFile, cfg.GoogleTokenFile, cfg.GoogleCalendarID)
		if err != nil {
			log.Panic(err)
		}
		observers = append(observers, mirror)
		deleteObservers = append(deleteObservers, mirror)
	}

	var sessions session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		redisSessions := session.NewRedisStore(rdb)
		if err = redisSessions.Ping(ctx); err != nil {
			log.Panic(err)
		}
		sessions = redisSessions
		checks["redis"] = redisSessions
	}

	app := service.NewScheduleService(log, st, dir, observers...)
	sweeper := worker.NewSweeper(log, st, deleteObservers...)
	if err = sweeper.Start(ctx, cfg.CleanupInterval); err != nil {
		log.Panic(err)
	}

	server, err := rest.NewServer(log, app, dir, sweeper, rest.Options{
		Address:  cfg.Address,
		Version:  version,
		KeyFile:  cfg.JWTKeyFile,
		TokenTTL: cfg.TokenTTL,
		Workdays: cfg.WorkdayCount,
		Sessions: sessions,
		Checks:   checks,
	})
	if err != nil {
		log.Panic(err)
	}

	var wg sync.WaitGroup
	var delivery worker.Notifier = notifier.New(log)
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken)
		if err != nil {
			log.Panic(err)
		}
		tg, err := telegram.New(log, bot, app, dir, sessions, telegram.Options{
			MeetingTimes:     cfg.MeetingTimes,
			MeetingDurations: cfg.MeetingDurations,
			Workdays:         cfg.WorkdayCount,
			RatePerMinute:    cfg.RatePerMinute,
		})
		if err != nil {
			log.Panic(err)
		}
		delivery = telegram.NewNotifier(log, bot, sessions)
		wg.Add(1)
		go func() {
			defer wg.Done()
			tg.Run(ctx)
		}()
	} else {
		log.Warn("TG_TOKEN is not set, invitations are only logged")
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.New(log, st, delivery).Run(ctx, cfg.NotifyInterval)
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.Run(ctx); err != nil {
			log.Errorf("http server failed: %v", err)
			cancel()
		}
	}()
	wg.Wait()
	sweeper.Stop()
	sweeper.Wait()
	log.Info("Server stopped")
}
