package telegram

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v3"
)

const tooManyRequests = "Too many requests, slow down a little."

type limiters struct {
	mu    sync.Mutex
	limit rate.Limit
	burst int
	users map[int64]*rate.Limiter
}

func newLimiters(perMinute int) *limiters {
	if perMinute <= 0 {
		perMinute = 60
	}
	burst := perMinute / 6
	if burst < 1 {
		burst = 1
	}
	return &limiters{
		limit: rate.Every(time.Minute / time.Duration(perMinute)),
		burst: burst,
		users: make(map[int64]*rate.Limiter),
	}
}

func (l *limiters) allow(id int64) bool {
	l.mu.Lock()
	lim, ok := l.users[id]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.users[id] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// rateLimit drops updates from senders exceeding perMinute updates.
func rateLimit(log *logrus.Entry, perMinute int) tele.MiddlewareFunc {
	l := newLimiters(perMinute)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			id := senderID(c)
			if l.allow(id) {
				return next(c)
			}
			log.Warnf("rate limit exceeded by %d", id)
			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{Text: tooManyRequests, ShowAlert: true})
			}
			return nil
		}
	}
}
