package rest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v4"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type App interface {
	Workdays(count int) []timeutil.Workday
	BusyParticipants(ctx context.Context, date timeutil.Date, start string, durationMinutes int, participants []string) ([]string, error)
	Create(ctx context.Context, creator string, date timeutil.Date, start string, durationMinutes int, participants []string) (int, error)
	Meeting(ctx context.Context, id int) (models.Meeting, error)
	Delete(ctx context.Context, user string, id int) error
	PastMeetings(ctx context.Context, creator string) ([]models.Meeting, error)
	FutureMeetings(ctx context.Context, creator string) ([]models.Meeting, error)
	Notifications(ctx context.Context, user string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, user string, id int) error
	Stats(ctx context.Context) (models.Stats, error)
}

type Authenticator interface {
	Authenticate(name, password string) (models.User, error)
}

type Sweeper interface {
	SweepNow(ctx context.Context) (int, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type SessionCounter interface {
	Count(ctx context.Context) (int, error)
}

type Options struct {
	Address  string
	Version  string
	KeyFile  string
	TokenTTL time.Duration
	Workdays int
	// Sessions is optional; without it Stats reports zero sessions.
	Sessions SessionCounter
	// Checks are run by /readyz.
	Checks map[string]Pinger
}

type Server struct {
	log        *logrus.Entry
	app        App
	users      Authenticator
	sweeper    Sweeper
	opts       Options
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	server     *http.Server
	now        func() time.Time
}

func NewServer(log *logrus.Logger, app App, users Authenticator, sweeper Sweeper, opts Options) (*Server, error) {
	key, err := loadKey(opts.KeyFile)
	if err != nil {
		return nil, err
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	s := Server{
		log:        log.WithField("component", "rest"),
		app:        app,
		users:      users,
		sweeper:    sweeper,
		opts:       opts,
		privateKey: key,
		publicKey:  &key.PublicKey,
		now:        time.Now,
	}
	s.server = &http.Server{
		Addr:              opts.Address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &s, nil
}

// loadKey reads a PEM RSA private key. Without a file an ephemeral key is
// generated, so tokens do not survive a restart.
func loadKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return nil, fmt.Errorf("err generating signing key: %w", err)
		}
		return key, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("err reading signing key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("err parsing signing key: %w", err)
	}
	return key, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/version", s.versionHandler)
	r.Get("/readyz", s.readyHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Post("/login", s.loginHandler)
			r.Group(func(r chi.Router) {
				r.Use(s.jwtAuth)
				r.Get("/workdays", s.workdaysHandler)
				r.Get("/availability", s.availabilityHandler)
				r.Get("/stats", s.statsHandler)
				r.Get("/notifications", s.notificationsHandler)
				r.Post("/notifications/{id}/read", s.readNotificationHandler)
				r.Route("/meetings", func(r chi.Router) {
					r.Post("/", s.createMeetingHandler)
					r.Get("/past", s.pastMeetingsHandler)
					r.Get("/future", s.futureMeetingsHandler)
					r.Get("/{id}", s.getMeetingHandler)
					r.Delete("/{id}", s.deleteMeetingHandler)
				})
				r.With(s.creatorOnly).Post("/retention/sweep", s.sweepHandler)
			})
		})
	})
	return r
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("err shutting down http server: %v", err)
		}
	}()
	s.log.Infof("Starting http server on %s", s.opts.Address)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
