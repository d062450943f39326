package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pershin-daniil/MeetBot/pkg/logger"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/store"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type WorkerTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *store.Store
}

func (s *WorkerTestSuite) SetupTest() {
	s.ctx = context.Background()
	var err error
	s.store, err = store.New(s.ctx, logger.NewLogger(), "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	s.Require().NoError(err)
	s.Require().NoError(s.store.Migrate(migrate.Up))
}

func (s *WorkerTestSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

func (s *WorkerTestSuite) insert(date timeutil.Date, participants ...string) int {
	s.T().Helper()
	id, err := s.store.InsertMeeting(s.ctx, models.Meeting{
		Creator:         "Ryzhov D.A.",
		Date:            date,
		StartTime:       "10:00",
		DurationMinutes: 60,
		Participants:    participants,
	})
	s.Require().NoError(err)
	return id
}

func (s *WorkerTestSuite) remaining() []timeutil.Date {
	meetings, err := s.store.AllMeetings(s.ctx)
	s.Require().NoError(err)
	dates := make([]timeutil.Date, 0, len(meetings))
	for _, m := range meetings {
		dates = append(dates, m.Date)
	}
	return dates
}

func clock(year int, month time.Month, day int) func() time.Time {
	return func() time.Time { return time.Date(year, month, day, 8, 0, 0, 0, time.Local) }
}

func (s *WorkerTestSuite) TestSweepRemovesOnlyPastMeetings() {
	january := timeutil.Date{Year: 2026, Month: time.January, Day: 1}
	june := timeutil.Date{Year: 2026, Month: time.June, Day: 15}
	december := timeutil.Date{Year: 2026, Month: time.December, Day: 31}
	s.insert(january, "Morozov I.A.")
	s.insert(june)
	s.insert(december)

	deleted, err := NewSweeper(logger.NewLogger(), s.store).
		WithClock(clock(2026, time.June, 15)).
		SweepNow(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(1, deleted)
	s.Require().Equal([]timeutil.Date{june, december}, s.remaining())

	notifications, err := s.store.UnreadNotifications(s.ctx, "Morozov I.A.")
	s.Require().NoError(err)
	s.Require().Empty(notifications)
}

func (s *WorkerTestSuite) TestSweepAcrossNewYear() {
	december := timeutil.Date{Year: 2026, Month: time.December, Day: 31}
	january := timeutil.Date{Year: 2027, Month: time.January, Day: 3}
	s.insert(december)
	s.insert(january)

	sweeper := NewSweeper(logger.NewLogger(), s.store)

	deleted, err := sweeper.WithClock(clock(2026, time.December, 20)).SweepNow(s.ctx)
	s.Require().NoError(err)
	s.Require().Zero(deleted)

	deleted, err = sweeper.WithClock(clock(2027, time.January, 2)).SweepNow(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(1, deleted)
	s.Require().Equal([]timeutil.Date{january}, s.remaining())
}

func (s *WorkerTestSuite) TestStartSweepsImmediately() {
	s.insert(timeutil.Date{Year: 2026, Month: time.January, Day: 1})
	observer := &deletions{}
	sweeper := NewSweeper(logger.NewLogger(), s.store, observer).WithClock(clock(2026, time.June, 15))

	s.Require().NoError(sweeper.Start(s.ctx, time.Hour))
	s.Require().ErrorIs(sweeper.Start(s.ctx, time.Hour), ErrAlreadyRunning)
	s.Require().Eventually(func() bool { return observer.count() == 1 }, time.Second, 10*time.Millisecond)
	s.Require().True(sweeper.Running())

	sweeper.Stop()
	sweeper.Wait()
	s.Require().False(sweeper.Running())
	s.Require().Empty(s.remaining())

	// a stopped sweeper can be started again
	s.Require().NoError(sweeper.Start(s.ctx, time.Hour))
	sweeper.Stop()
	sweeper.Wait()
}

func (s *WorkerTestSuite) TestDeliverPending() {
	id := s.insert(timeutil.Date{Year: 2026, Month: time.October, Day: 20}, "Morozov I.A.", "Vargasov A.S.")
	notifier := &fakeNotifier{offline: map[string]bool{"Vargasov A.S.": true}}
	w := New(logger.NewLogger(), s.store, notifier)

	delivered, err := w.DeliverPending(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(1, delivered)
	s.Require().Equal([]string{"Morozov I.A."}, notifier.sent)

	unread, err := s.store.UnreadNotifications(s.ctx, "Morozov I.A.")
	s.Require().NoError(err)
	s.Require().Empty(unread)
	unread, err = s.store.UnreadNotifications(s.ctx, "Vargasov A.S.")
	s.Require().NoError(err)
	s.Require().Len(unread, 1)
	s.Require().Equal(id, unread[0].MeetingID)

	notifier.offline = nil
	delivered, err = w.DeliverPending(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(1, delivered)
}

func (s *WorkerTestSuite) TestOfflineBacklogDoesNotBlockDelivery() {
	offline := map[string]bool{}
	var backlog []string
	for i := 0; i < batchSize+5; i++ {
		name := fmt.Sprintf("Offline %d", i)
		offline[name] = true
		backlog = append(backlog, name)
	}
	date := timeutil.Date{Year: 2026, Month: time.October, Day: 20}
	s.insert(date, backlog...)
	s.insert(date, "Morozov I.A.")
	notifier := &fakeNotifier{offline: offline}

	delivered, err := New(logger.NewLogger(), s.store, notifier).DeliverPending(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(1, delivered)
	s.Require().Equal([]string{"Morozov I.A."}, notifier.sent)

	unread, err := s.store.UnreadNotifications(s.ctx, "Offline 0")
	s.Require().NoError(err)
	s.Require().Len(unread, 1)
}

func TestWorkerTestSuite(t *testing.T) {
	suite.Run(t, new(WorkerTestSuite))
}

type failingStore struct {
	mu       sync.Mutex
	calls    int
	meetings []models.Meeting
}

func (f *failingStore) AllMeetings(context.Context) ([]models.Meeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == 1 {
		return nil, models.ErrStoreUnavailable
	}
	return f.meetings, nil
}

func (f *failingStore) DeleteMeeting(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == 1 {
		return models.ErrMeetingNotFound
	}
	f.meetings = f.meetings[:0]
	return nil
}

func (f *failingStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestSweeperSurvivesStoreErrors(t *testing.T) {
	past := timeutil.Date{Year: 2026, Month: time.January, Day: 1}
	st := &failingStore{meetings: []models.Meeting{{ID: 1, Date: past}, {ID: 2, Date: past}}}
	sweeper := NewSweeper(logger.NewLogger(), st).WithClock(clock(2026, time.June, 15))

	_, err := sweeper.SweepNow(context.Background())
	require.ErrorIs(t, err, models.ErrStoreUnavailable)

	deleted, err := sweeper.SweepNow(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
}

func TestSweeperLoopKeepsRunningAfterFailure(t *testing.T) {
	st := &failingStore{}
	sweeper := NewSweeper(logger.NewLogger(), st).WithClock(clock(2026, time.June, 15))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, sweeper.Start(ctx, 10*time.Millisecond))
	require.Eventually(t, func() bool { return st.callCount() >= 3 }, time.Second, 5*time.Millisecond)

	cancel()
	sweeper.Wait()
	require.False(t, sweeper.Running())
}

// slowStore holds the first sweep inside AllMeetings until released.
type slowStore struct {
	mu      sync.Mutex
	calls   int
	deleted []int
	entered chan struct{}
	release chan struct{}
}

func (b *slowStore) AllMeetings(context.Context) ([]models.Meeting, error) {
	b.mu.Lock()
	b.calls++
	first := b.calls == 1
	b.mu.Unlock()
	if first {
		close(b.entered)
		<-b.release
	}
	past := timeutil.Date{Year: 2026, Month: time.January, Day: 1}
	return []models.Meeting{{ID: 7, Date: past}}, nil
}

func (b *slowStore) DeleteMeeting(_ context.Context, id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, id)
	return nil
}

func TestStopLetsRunningSweepFinish(t *testing.T) {
	st := &slowStore{entered: make(chan struct{}), release: make(chan struct{})}
	sweeper := NewSweeper(logger.NewLogger(), st).WithClock(clock(2026, time.June, 15))

	require.NoError(t, sweeper.Start(context.Background(), time.Nanosecond))
	<-st.entered
	sweeper.Stop()
	close(st.release)
	sweeper.Wait()

	st.mu.Lock()
	defer st.mu.Unlock()
	require.Equal(t, 1, st.calls)
	require.Equal(t, []int{7}, st.deleted)
	require.False(t, sweeper.Running())
}

type deletions struct {
	mu  sync.Mutex
	ids []int
}

func (d *deletions) MeetingDeleted(_ context.Context, meeting models.Meeting) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, meeting.ID)
	return errors.New("calendar unavailable")
}

func (d *deletions) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ids)
}

type fakeNotifier struct {
	offline map[string]bool
	sent    []string
}

func (f *fakeNotifier) Notify(_ context.Context, username, _ string) error {
	if f.offline[username] {
		return ErrRecipientOffline
	}
	f.sent = append(f.sent, username)
	return nil
}

func TestInvitationText(t *testing.T) {
	text := InvitationText(models.Meeting{
		Creator:         "Ryzhov D.A.",
		Date:            timeutil.Date{Year: 2026, Month: time.October, Day: 20},
		StartTime:       "14:00",
		DurationMinutes: 120,
	})
	require.Equal(t, "You are invited to a meeting on 20.10 at 14:00-16:00 (2 hours), organised by Ryzhov D.A.", text)
}
