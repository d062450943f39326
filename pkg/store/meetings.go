package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
)

const meetingColumns = `id, creator, date, year, start_time, duration_minutes, participants`

type meetingRow struct {
	ID              int    `db:"id"`
	Creator         string `db:"creator"`
	Date            string `db:"date"`
	Year            int    `db:"year"`
	StartTime       string `db:"start_time"`
	DurationMinutes int    `db:"duration_minutes"`
	Participants    string `db:"participants"`
}

func (r meetingRow) toModel() (models.Meeting, error) {
	day, err := time.Parse("02.01.2006", r.Date+"."+strconv.Itoa(r.Year))
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err parsing date of meeting %d: %w", r.ID, err)
	}
	participants := make([]string, 0)
	if r.Participants != "" {
		if err = json.Unmarshal([]byte(r.Participants), &participants); err != nil {
			return models.Meeting{}, fmt.Errorf("err decoding participants of meeting %d: %w", r.ID, err)
		}
	}
	return models.Meeting{
		ID:              r.ID,
		Creator:         r.Creator,
		Date:            timeutil.DateOf(day),
		StartTime:       r.StartTime,
		DurationMinutes: r.DurationMinutes,
		Participants:    participants,
	}, nil
}

func toModels(rows []meetingRow) ([]models.Meeting, error) {
	meetings := make([]models.Meeting, 0, len(rows))
	for _, r := range rows {
		m, err := r.toModel()
		if err != nil {
			return nil, err
		}
		meetings = append(meetings, m)
	}
	sortMeetings(meetings)
	return meetings, nil
}

// sortMeetings orders meetings chronologically. Labels are not sortable
// across years, so ordering happens here rather than in SQL.
func sortMeetings(meetings []models.Meeting) {
	sort.SliceStable(meetings, func(i, j int) bool {
		a, b := meetings[i], meetings[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		if am, bm := startMinutes(a), startMinutes(b); am != bm {
			return am < bm
		}
		return a.ID < b.ID
	})
}

// startMinutes puts unparsable start times last.
func startMinutes(m models.Meeting) int {
	minutes, err := timeutil.ToMinutes(m.StartTime)
	if err != nil {
		return timeutil.MinutesPerDay + 1
	}
	return minutes
}

// InsertMeeting stores the meeting and one unread notification per
// participant in a single transaction.
func (s *Store) InsertMeeting(ctx context.Context, meeting models.Meeting) (int, error) {
	participants := meeting.Participants
	if participants == nil {
		participants = []string{}
	}
	encoded, err := json.Marshal(participants)
	if err != nil {
		return 0, fmt.Errorf("err encoding participants: %w", err)
	}
	var id int
	err = s.retry(ctx, "InsertMeeting", func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback()
		}()
		err = tx.QueryRowxContext(ctx, tx.Rebind(`
INSERT INTO meetings (creator, date, year, start_time, duration_minutes, participants)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id;`), meeting.Creator, meeting.Date.Label(), meeting.Date.Year,
			meeting.StartTime, meeting.DurationMinutes, string(encoded)).Scan(&id)
		if err != nil {
			return err
		}
		notify := tx.Rebind(`
INSERT INTO notifications (meeting_id, participant, is_read)
VALUES (?, ?, ?);`)
		for _, p := range participants {
			if _, err = tx.ExecContext(ctx, notify, id, p, false); err != nil {
				return fmt.Errorf("err inserting notification for %s: %w", p, err)
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("err inserting meeting: %w", err)
	}
	return id, nil
}

func (s *Store) selectMeetings(ctx context.Context, method, query string, args ...interface{}) ([]models.Meeting, error) {
	var rows []meetingRow
	err := s.retry(ctx, method, func() error {
		rows = rows[:0]
		return s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...)
	})
	if err != nil {
		return nil, err
	}
	return toModels(rows)
}

func (s *Store) AllMeetings(ctx context.Context) ([]models.Meeting, error) {
	meetings, err := s.selectMeetings(ctx, "AllMeetings", `SELECT `+meetingColumns+` FROM meetings`)
	if err != nil {
		return nil, fmt.Errorf("err getting meetings: %w", err)
	}
	return meetings, nil
}

func (s *Store) MeetingsByCreator(ctx context.Context, creator string) ([]models.Meeting, error) {
	meetings, err := s.selectMeetings(ctx, "MeetingsByCreator",
		`SELECT `+meetingColumns+` FROM meetings WHERE creator = ?`, creator)
	if err != nil {
		return nil, fmt.Errorf("err getting meetings of %s: %w", creator, err)
	}
	return meetings, nil
}

// MeetingsByParticipant narrows candidates with a LIKE over the encoded list
// and then checks membership exactly.
func (s *Store) MeetingsByParticipant(ctx context.Context, user string) ([]models.Meeting, error) {
	encoded, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("err encoding participant: %w", err)
	}
	candidates, err := s.selectMeetings(ctx, "MeetingsByParticipant",
		`SELECT `+meetingColumns+` FROM meetings WHERE participants LIKE ?`, "%"+string(encoded)+"%")
	if err != nil {
		return nil, fmt.Errorf("err getting meetings with %s: %w", user, err)
	}
	meetings := candidates[:0]
	for _, m := range candidates {
		if m.HasParticipant(user) {
			meetings = append(meetings, m)
		}
	}
	return meetings, nil
}

func (s *Store) MeetingByID(ctx context.Context, id int) (models.Meeting, error) {
	var row meetingRow
	query := s.db.Rebind(`SELECT ` + meetingColumns + ` FROM meetings WHERE id = ?`)
	err := s.retry(ctx, "MeetingByID", func() error {
		err := s.db.GetContext(ctx, &row, query, id)
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrMeetingNotFound
		}
		return err
	})
	if err != nil {
		return models.Meeting{}, fmt.Errorf("err getting meeting %d: %w", id, err)
	}
	return row.toModel()
}

// DeleteMeeting removes the meeting and its notifications in one transaction.
func (s *Store) DeleteMeeting(ctx context.Context, id int) error {
	err := s.retry(ctx, "DeleteMeeting", func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback()
		}()
		if _, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM notifications WHERE meeting_id = ?`), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM meetings WHERE id = ?`), id)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return models.ErrMeetingNotFound
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("err deleting meeting %d: %w", id, err)
	}
	return nil
}
