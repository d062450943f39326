package calendar

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/pershin-daniil/MeetBot/pkg/logger"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

type fakeEvents struct {
	inserted  []*calendar.Event
	deleted   []string
	deleteErr error
}

func (f *fakeEvents) Insert(_ context.Context, _ string, event *calendar.Event) error {
	f.inserted = append(f.inserted, event)
	return nil
}

func (f *fakeEvents) Delete(_ context.Context, _ string, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	return f.deleteErr
}

var meeting = models.Meeting{
	ID:              12,
	Creator:         "Ryzhov D.A.",
	Date:            timeutil.Date{Year: 2026, Month: time.October, Day: 20},
	StartTime:       "14:00",
	DurationMinutes: 90,
	Participants:    []string{"Morozov I.A.", "Vargasov A.S."},
}

func TestEventID(t *testing.T) {
	id := EventID(12)
	require.Len(t, id, 32)
	require.Regexp(t, "^[0-9a-f]+$", id)
	require.Equal(t, id, EventID(12))
	require.NotEqual(t, id, EventID(13))
}

func TestEvent(t *testing.T) {
	event, err := Event(meeting, time.UTC)
	require.NoError(t, err)
	require.Equal(t, EventID(12), event.Id)
	require.Equal(t, "Meeting organised by Ryzhov D.A.", event.Summary)
	require.Equal(t, "Participants: Morozov I.A., Vargasov A.S.", event.Description)
	require.Equal(t, "2026-10-20T14:00:00Z", event.Start.DateTime)
	require.Equal(t, "2026-10-20T15:30:00Z", event.End.DateTime)

	bad := meeting
	bad.StartTime = "noon"
	_, err = Event(bad, time.UTC)
	require.ErrorIs(t, err, timeutil.ErrMalformedTime)
}

func TestMirror(t *testing.T) {
	ctx := context.Background()
	api := &fakeEvents{}
	c := NewWithAPI(logger.NewLogger(), api, "team")

	require.NoError(t, c.MeetingCreated(ctx, meeting))
	require.Len(t, api.inserted, 1)

	require.NoError(t, c.MeetingDeleted(ctx, meeting))
	require.Equal(t, []string{EventID(12)}, api.deleted)

	api.deleteErr = &googleapi.Error{Code: http.StatusGone}
	require.NoError(t, c.MeetingDeleted(ctx, meeting))

	api.deleteErr = errors.New("boom")
	require.Error(t, c.MeetingDeleted(ctx, meeting))
}
