package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pershin-daniil/MeetBot/internal/session"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
	"github.com/pershin-daniil/MeetBot/pkg/worker"
	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

type App interface {
	Workdays(count int) []timeutil.Workday
	AvailableTimes(slots []string, date timeutil.Date) []string
	IsAvailable(ctx context.Context, user string, date timeutil.Date, start string, durationMinutes int) (bool, error)
	Create(ctx context.Context, creator string, date timeutil.Date, start string, durationMinutes int, participants []string) (int, error)
	Meeting(ctx context.Context, id int) (models.Meeting, error)
	Delete(ctx context.Context, user string, id int) error
	PastMeetings(ctx context.Context, creator string) ([]models.Meeting, error)
	CreatorAgenda(ctx context.Context, creator string, days int) ([]models.DayAgenda, error)
	ParticipantAgenda(ctx context.Context, user string, days int) ([]models.DayAgenda, error)
	Calendar(ctx context.Context, days int) ([]models.DayCalendar, error)
}

type Directory interface {
	Names() []string
	Others(name string) []string
	Lookup(name string) (models.User, bool)
	IsCreator(name string) bool
	Authenticate(name, password string) (models.User, error)
}

type Options struct {
	MeetingTimes     []string
	MeetingDurations []int
	Workdays         int
	RatePerMinute    int
}

type Telegram struct {
	log      *logrus.Entry
	bot      *tele.Bot
	app      App
	users    Directory
	sessions session.Store
	opts     Options
	ctx      context.Context
}

func New(log *logrus.Logger, bot *tele.Bot, app App, users Directory, sessions session.Store, opts Options) (*Telegram, error) {
	t := Telegram{
		log:      log.WithField("component", "telegram"),
		bot:      bot,
		app:      app,
		users:    users,
		sessions: sessions,
		opts:     opts,
		ctx:      context.Background(),
	}
	t.bot.OnError = func(err error, c tele.Context) {
		t.log.Errorf("err handling update from %d: %v", senderID(c), err)
	}
	t.bot.Use(rateLimit(t.log, opts.RatePerMinute))
	t.initButtons()
	t.initHandlers()
	return &t, nil
}

func NewBot(token string) (*tele.Bot, error) {
	config := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(config)
	if err != nil {
		return nil, fmt.Errorf("new bot failed: %w", err)
	}
	return b, nil
}

func (t *Telegram) Run(ctx context.Context) {
	t.ctx = ctx
	go func() {
		<-ctx.Done()
		t.bot.Stop()
	}()
	t.log.Infof("Starting telegram bot as %v", t.bot.Me.Username)
	t.bot.Start()
}

// Notifier delivers messages to the chat a user is logged in from.
type Notifier struct {
	log      *logrus.Entry
	bot      *tele.Bot
	sessions session.Store
}

func NewNotifier(log *logrus.Logger, bot *tele.Bot, sessions session.Store) *Notifier {
	return &Notifier{
		log:      log.WithField("component", "notifier"),
		bot:      bot,
		sessions: sessions,
	}
}

func (n *Notifier) Notify(ctx context.Context, username, message string) error {
	chat, err := n.sessions.ChatOf(ctx, username)
	if errors.Is(err, session.ErrNotFound) {
		return worker.ErrRecipientOffline
	}
	if err != nil {
		return err
	}
	if _, err = n.bot.Send(tele.ChatID(chat), "🔔 "+message); err != nil {
		return fmt.Errorf("tg send message failed: %w", err)
	}
	n.log.Debugf("notified %s in chat %d", username, chat)
	return nil
}

func senderID(c tele.Context) int64 {
	if c == nil || c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}

func chatID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	return senderID(c)
}
