package telegram

import (
	"strconv"

	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
	tele "gopkg.in/telebot.v3"
)

const (
	cmdStart  = "/start"
	cmdHelp   = "/help"
	cmdLogout = "/logout"
)

const (
	backMenu         = "menu"
	backDates        = "dates"
	backTimes        = "times"
	backDurations    = "durations"
	backParticipants = "participants"
)

// Endpoints of buttons that carry data. Their markups are built per message.
var (
	userBtn          = tele.Btn{Unique: "user"}
	dateBtn          = tele.Btn{Unique: "date"}
	timeBtn          = tele.Btn{Unique: "time"}
	durationBtn      = tele.Btn{Unique: "duration"}
	participantBtn   = tele.Btn{Unique: "participant"}
	deleteMeetingBtn = tele.Btn{Unique: "delete_meeting"}
	confirmDeleteBtn = tele.Btn{Unique: "confirm_delete"}
	backBtn          = tele.Btn{Unique: "back"}
)

var (
	menu             = &tele.ReplyMarkup{}
	newMeetingBtn    = menu.Data("➕ New meeting", "new_meeting")
	myMeetingsBtn    = menu.Data("📋 Created by me", "my_meetings")
	calendarBtn      = menu.Data("📅 Meeting calendar", "calendar")
	deleteOldBtn     = menu.Data("🗑️ Delete past meetings", "delete_old_meetings")
	guestMeetingsBtn = menu.Data("📋 My meetings", "guest_meetings")
	guestCalendarBtn = menu.Data("📅 Meeting calendar", "guest_calendar")
	logoutBtn        = menu.Data("🚪 Log out", "logout")
)

var (
	confirm         = &tele.ReplyMarkup{}
	confirmPartsBtn = confirm.Data("✅ Participants are complete", "confirm_participants")
	addMoreBtn      = confirm.Data("➕ Add more", "add_more_participants")
	backToPartsBtn  = confirm.Data("◀️ Back", backBtn.Unique, backParticipants)
)

var cancelDeleteBtn = tele.Btn{Unique: "cancel_delete", Text: "❌ Cancel"}

const backToMenuLabel = "◀️ Back to menu"

func (t *Telegram) initButtons() {
	confirm.Inline(
		confirm.Row(confirmPartsBtn),
		confirm.Row(addMoreBtn),
		confirm.Row(backToPartsBtn))
}

func mainMenu(isCreator bool) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	var rows []tele.Row
	if isCreator {
		rows = append(rows,
			m.Row(newMeetingBtn),
			m.Row(myMeetingsBtn),
			m.Row(calendarBtn),
			m.Row(deleteOldBtn))
	} else {
		rows = append(rows,
			m.Row(guestMeetingsBtn),
			m.Row(guestCalendarBtn))
	}
	rows = append(rows, m.Row(logoutBtn))
	m.Inline(rows...)
	return m
}

func usersKeyboard(names []string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(names))
	for _, name := range names {
		rows = append(rows, m.Row(m.Data(name, userBtn.Unique, name)))
	}
	m.Inline(rows...)
	return m
}

func backKeyboard() *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(m.Data(backToMenuLabel, backBtn.Unique, backMenu)))
	return m
}

func datesKeyboard(days []timeutil.Workday) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(days)+1)
	for _, d := range days {
		rows = append(rows, m.Row(m.Data(d.Label, dateBtn.Unique, d.Date.String())))
	}
	rows = append(rows, m.Row(m.Data("◀️ Back", backBtn.Unique, backMenu)))
	m.Inline(rows...)
	return m
}

func timesKeyboard(times []string) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(times)+1)
	for _, t := range times {
		rows = append(rows, m.Row(m.Data(t, timeBtn.Unique, t)))
	}
	rows = append(rows, m.Row(m.Data("◀️ Back", backBtn.Unique, backDates)))
	m.Inline(rows...)
	return m
}

func durationsKeyboard(durations []int) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(durations)+1)
	for _, d := range durations {
		rows = append(rows, m.Row(m.Data(timeutil.FormatDuration(d), durationBtn.Unique, strconv.Itoa(d))))
	}
	rows = append(rows, m.Row(m.Data("◀️ Back", backBtn.Unique, backTimes)))
	m.Inline(rows...)
	return m
}

// participantsKeyboard marks already selected participants with a check.
func participantsKeyboard(candidates, selected []string) *tele.ReplyMarkup {
	chosen := make(map[string]bool, len(selected))
	for _, s := range selected {
		chosen[s] = true
	}
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(candidates)+1)
	for _, c := range candidates {
		text := c
		if chosen[c] {
			text = "✅ " + c
		}
		rows = append(rows, m.Row(m.Data(text, participantBtn.Unique, c)))
	}
	rows = append(rows, m.Row(m.Data("◀️ Back", backBtn.Unique, backDurations)))
	m.Inline(rows...)
	return m
}

func deleteMeetingsKeyboard(meetings []models.Meeting) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(meetings)+1)
	for _, meeting := range meetings {
		text := "🗑️ " + meeting.Date.Label() + " " + meeting.StartTime + "-" + meeting.EndTime()
		rows = append(rows, m.Row(m.Data(text, deleteMeetingBtn.Unique, strconv.Itoa(meeting.ID))))
	}
	rows = append(rows, m.Row(m.Data(backToMenuLabel, backBtn.Unique, backMenu)))
	m.Inline(rows...)
	return m
}

func deleteConfirmationKeyboard(id int) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{}
	m.Inline(
		m.Row(m.Data("✅ Yes, delete", confirmDeleteBtn.Unique, strconv.Itoa(id))),
		m.Row(cancelDeleteBtn))
	return m
}
