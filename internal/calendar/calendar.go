package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

var eventNamespace = uuid.MustParse("6f1c2f4e-4a7e-4b53-9a5e-2d8f0c6a1b37")

// EventsAPI is the part of the Google Calendar events resource the mirror
// needs.
type EventsAPI interface {
	Insert(ctx context.Context, calendarID string, event *calendar.Event) error
	Delete(ctx context.Context, calendarID, eventID string) error
}

type googleEvents struct {
	srv *calendar.Service
}

func (g googleEvents) Insert(ctx context.Context, calendarID string, event *calendar.Event) error {
	_, err := g.srv.Events.Insert(calendarID, event).Context(ctx).Do()
	return err
}

func (g googleEvents) Delete(ctx context.Context, calendarID, eventID string) error {
	return g.srv.Events.Delete(calendarID, eventID).Context(ctx).Do()
}

// Calendar mirrors meetings into a shared Google calendar.
type Calendar struct {
	log        *logrus.Entry
	api        EventsAPI
	calendarID string
	loc        *time.Location
}

func New(ctx context.Context, log *logrus.Logger, credentialsFile, tokenFile, calendarID string) (*Calendar, error) {
	srv, err := calendarService(ctx, credentialsFile, tokenFile)
	if err != nil {
		return nil, err
	}
	return NewWithAPI(log, googleEvents{srv: srv}, calendarID), nil
}

func NewWithAPI(log *logrus.Logger, api EventsAPI, calendarID string) *Calendar {
	return &Calendar{
		log:        log.WithField("component", "calendar"),
		api:        api,
		calendarID: calendarID,
		loc:        time.Local,
	}
}

func (c *Calendar) MeetingCreated(ctx context.Context, meeting models.Meeting) error {
	event, err := Event(meeting, c.loc)
	if err != nil {
		return err
	}
	if err = c.api.Insert(ctx, c.calendarID, event); err != nil {
		return fmt.Errorf("err inserting calendar event for meeting %d: %w", meeting.ID, err)
	}
	c.log.Debugf("meeting %d mirrored as event %s", meeting.ID, event.Id)
	return nil
}

// MeetingDeleted removes the mirrored event. An event that is already gone
// is not an error.
func (c *Calendar) MeetingDeleted(ctx context.Context, meeting models.Meeting) error {
	err := c.api.Delete(ctx, c.calendarID, EventID(meeting.ID))
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("err deleting calendar event for meeting %d: %w", meeting.ID, err)
	}
	return nil
}

// EventID derives a stable Google event id from the meeting id. Google
// accepts lowercase hex, so a hyphen-free name-based UUID fits.
func EventID(meetingID int) string {
	id := uuid.NewSHA1(eventNamespace, []byte(fmt.Sprintf("meeting-%d", meetingID)))
	return strings.ReplaceAll(id.String(), "-", "")
}

func Event(meeting models.Meeting, loc *time.Location) (*calendar.Event, error) {
	startMinutes, err := timeutil.ToMinutes(meeting.StartTime)
	if err != nil {
		return nil, fmt.Errorf("err building event for meeting %d: %w", meeting.ID, err)
	}
	start := meeting.Date.Time(loc).Add(time.Duration(startMinutes) * time.Minute)
	end := start.Add(time.Duration(meeting.DurationMinutes) * time.Minute)
	participants := "none"
	if len(meeting.Participants) > 0 {
		participants = strings.Join(meeting.Participants, ", ")
	}
	return &calendar.Event{
		Id:          EventID(meeting.ID),
		Summary:     "Meeting organised by " + meeting.Creator,
		Description: "Participants: " + participants,
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}, nil
}

func calendarService(ctx context.Context, credentialsFile, tokenFile string) (*calendar.Service, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("err reading client secret file: %w", err)
	}
	// If modifying these scopes, delete your previously saved token file.
	config, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("err parsing client secret file: %w", err)
	}
	client, err := getClient(ctx, config, tokenFile)
	if err != nil {
		return nil, err
	}
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("err creating calendar client: %w", err)
	}
	return srv, nil
}

// getClient uses the cached token, running the browser authorization flow on
// first start.
func getClient(ctx context.Context, config *oauth2.Config, tokenFile string) (*http.Client, error) {
	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		if tok, err = getTokenFromWeb(ctx, config); err != nil {
			return nil, err
		}
		if err = saveToken(tokenFile, tok); err != nil {
			return nil, err
		}
	}
	return config.Client(ctx, tok), nil
}

func getTokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the "+
		"authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("err reading authorization code: %w", err)
	}
	tok, err := config.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("err exchanging authorization code: %w", err)
	}
	return tok, nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("err caching oauth token: %w", err)
	}
	defer f.Close()
	if err = json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("err caching oauth token: %w", err)
	}
	return nil
}
