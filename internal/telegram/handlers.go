package telegram

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pershin-daniil/MeetBot/internal/session"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
	tele "gopkg.in/telebot.v3"
)

const (
	sessionExpired = "❌ Session expired, use /start"
	startOver      = "❌ Start the meeting over from the menu"
	internalError  = "❌ Something went wrong, try again later"
	chooseAction   = "Choose an action:"

	dateUnavailable = "❌ This date is not available"
	timeUnavailable = "❌ This time is not available"
)

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

func (t *Telegram) initHandlers() {
	t.bot.Handle(cmdStart, t.startHandler)
	t.bot.Handle(cmdHelp, t.helpHandler)
	t.bot.Handle(cmdLogout, t.logoutHandler)
	t.bot.Handle(tele.OnText, t.textHandler)

	t.bot.Handle(&userBtn, t.userHandler)
	t.bot.Handle(&newMeetingBtn, t.newMeetingHandler)
	t.bot.Handle(&dateBtn, t.dateHandler)
	t.bot.Handle(&timeBtn, t.timeHandler)
	t.bot.Handle(&durationBtn, t.durationHandler)
	t.bot.Handle(&participantBtn, t.participantHandler)
	t.bot.Handle(&confirmPartsBtn, t.confirmParticipantsHandler)
	t.bot.Handle(&addMoreBtn, t.addMoreHandler)
	t.bot.Handle(&myMeetingsBtn, t.myMeetingsHandler)
	t.bot.Handle(&calendarBtn, t.calendarHandler)
	t.bot.Handle(&guestCalendarBtn, t.calendarHandler)
	t.bot.Handle(&guestMeetingsBtn, t.guestMeetingsHandler)
	t.bot.Handle(&deleteOldBtn, t.deleteOldHandler)
	t.bot.Handle(&deleteMeetingBtn, t.deleteMeetingHandler)
	t.bot.Handle(&confirmDeleteBtn, t.confirmDeleteHandler)
	t.bot.Handle(&cancelDeleteBtn, t.cancelDeleteHandler)
	t.bot.Handle(&logoutBtn, t.logoutButtonHandler)
	t.bot.Handle(&backBtn, t.backHandler)
}

func alert(c tele.Context, text string) error {
	return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
}

func (t *Telegram) current(c tele.Context) (session.Session, error) {
	s, err := t.sessions.Get(t.ctx, chatID(c))
	if errors.Is(err, session.ErrNotFound) {
		return session.Session{ChatID: chatID(c)}, nil
	}
	return s, err
}

// loggedIn loads the session of a callback sender. ok is false when the
// sender was already told to log in again.
func (t *Telegram) loggedIn(c tele.Context) (session.Session, bool, error) {
	s, err := t.current(c)
	if err != nil {
		return session.Session{}, false, t.fail(c, err)
	}
	if !s.LoggedIn() {
		return session.Session{}, false, alert(c, sessionExpired)
	}
	return s, true, nil
}

func (t *Telegram) withDraft(c tele.Context) (session.Session, bool, error) {
	s, ok, err := t.loggedIn(c)
	if !ok {
		return s, false, err
	}
	if s.Draft == nil {
		return s, false, alert(c, startOver)
	}
	return s, true, nil
}

func (t *Telegram) fail(c tele.Context, err error) error {
	if c.Callback() != nil {
		_ = alert(c, internalError)
	} else {
		_ = c.Send(internalError)
	}
	return err
}

func (t *Telegram) save(c tele.Context, s session.Session) error {
	if err := t.sessions.Save(t.ctx, s); err != nil {
		return t.fail(c, fmt.Errorf("err saving session: %w", err))
	}
	return nil
}

func (t *Telegram) startHandler(c tele.Context) error {
	s, err := t.current(c)
	if err != nil {
		return t.fail(c, err)
	}
	if s.LoggedIn() {
		return c.Send("❌ You are already logged in! Use /logout to sign out.")
	}
	s.State = session.StateChoosingUser
	if err = t.save(c, s); err != nil {
		return err
	}
	if err = c.Send("👋 Welcome! Choose your name:", usersKeyboard(t.users.Names())); err != nil {
		return fmt.Errorf("tg send message failed: %w", err)
	}
	return nil
}

func (t *Telegram) helpHandler(c tele.Context) error {
	return c.Send(helpText)
}

func (t *Telegram) logoutHandler(c tele.Context) error {
	if err := t.sessions.Delete(t.ctx, chatID(c)); err != nil {
		return t.fail(c, err)
	}
	return c.Send("👋 You have logged out.")
}

func (t *Telegram) userHandler(c tele.Context) error {
	name := c.Data()
	if _, ok := t.users.Lookup(name); !ok {
		return alert(c, "❌ Unknown user")
	}
	s, err := t.current(c)
	if err != nil {
		return t.fail(c, err)
	}
	if s.LoggedIn() {
		return alert(c, "❌ You are already logged in! Use /logout to sign out.")
	}
	s.Candidate = name
	s.State = session.StateEnteringPassword
	if err = t.save(c, s); err != nil {
		return err
	}
	if err = c.Edit(fmt.Sprintf("You chose: %s\n\nEnter your password:", name)); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return c.Respond()
}

func (t *Telegram) textHandler(c tele.Context) error {
	s, err := t.current(c)
	if err != nil {
		return t.fail(c, err)
	}
	if s.State != session.StateEnteringPassword || s.Candidate == "" {
		return c.Send("I did not understand that. Use /start to begin or /help for the list of commands.")
	}
	// remove the password from the chat history
	if err = c.Delete(); err != nil {
		t.log.Debugf("err deleting password message: %v", err)
	}
	user, err := t.users.Authenticate(s.Candidate, c.Text())
	if errors.Is(err, models.ErrInvalidCredentials) {
		return c.Send("❌ Wrong password! Try again:")
	}
	if err != nil {
		return t.fail(c, err)
	}
	s, err = t.sessions.Login(t.ctx, s, user.Name)
	if errors.Is(err, session.ErrTaken) {
		return c.Send("❌ You are already logged in from another chat!")
	}
	if err != nil {
		return t.fail(c, err)
	}
	t.log.Infof("%s logged in from chat %d", user.Name, s.ChatID)
	if err = c.Send("✅ Login successful!"); err != nil {
		return fmt.Errorf("tg send message failed: %w", err)
	}
	return c.Send(fmt.Sprintf("👋 Welcome, %s!\n\n%s", user.Name, chooseAction), mainMenu(user.IsCreator()))
}

func (t *Telegram) newMeetingHandler(c tele.Context) error {
	s, ok, err := t.loggedIn(c)
	if !ok {
		return err
	}
	if !t.users.IsCreator(s.Username) {
		return alert(c, "❌ You are not allowed to create meetings")
	}
	s.Draft = &session.Draft{}
	if err = t.save(c, s); err != nil {
		return err
	}
	return t.showDates(c)
}

func (t *Telegram) showDates(c tele.Context) error {
	if err := c.Edit("📅 Choose a date:", datesKeyboard(t.app.Workdays(t.opts.Workdays))); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return c.Respond()
}

func (t *Telegram) dateHandler(c tele.Context) error {
	s, ok, err := t.withDraft(c)
	if !ok {
		return err
	}
	var date timeutil.Date
	if err = date.UnmarshalText([]byte(c.Data())); err != nil {
		return alert(c, startOver)
	}
	if !t.offersDate(date) {
		return alert(c, dateUnavailable)
	}
	s.Draft.Date = date
	if err = t.save(c, s); err != nil {
		return err
	}
	return t.showTimes(c, date)
}

// offersDate reports whether date is one of the workdays currently on offer.
// Callback data comes from the client and may be stale or forged.
func (t *Telegram) offersDate(date timeutil.Date) bool {
	for _, d := range t.app.Workdays(t.opts.Workdays) {
		if d.Date == date {
			return true
		}
	}
	return false
}

func (t *Telegram) showTimes(c tele.Context, date timeutil.Date) error {
	times := t.app.AvailableTimes(t.opts.MeetingTimes, date)
	if err := c.Edit(fmt.Sprintf("🕐 Choose a time (date: %s):", date.Label()), timesKeyboard(times)); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return c.Respond()
}

func (t *Telegram) timeHandler(c tele.Context) error {
	s, ok, err := t.withDraft(c)
	if !ok {
		return err
	}
	if s.Draft.Date.IsZero() {
		return alert(c, startOver)
	}
	if !contains(t.app.AvailableTimes(t.opts.MeetingTimes, s.Draft.Date), c.Data()) {
		return alert(c, timeUnavailable)
	}
	s.Draft.StartTime = c.Data()
	if err = t.save(c, s); err != nil {
		return err
	}
	return t.showDurations(c, s.Draft.StartTime)
}

func (t *Telegram) showDurations(c tele.Context, start string) error {
	text := fmt.Sprintf("⏱️ Choose a duration (time: %s):", start)
	if err := c.Edit(text, durationsKeyboard(t.opts.MeetingDurations)); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return c.Respond()
}

func (t *Telegram) durationHandler(c tele.Context) error {
	s, ok, err := t.withDraft(c)
	if !ok {
		return err
	}
	duration, err := strconv.Atoi(c.Data())
	if err != nil || s.Draft.StartTime == "" {
		return alert(c, startOver)
	}
	if _, err = timeutil.NewInterval(s.Draft.StartTime, duration); err != nil {
		return alert(c, "❌ The meeting must end before midnight")
	}
	s.Draft.DurationMinutes = duration
	if err = t.save(c, s); err != nil {
		return err
	}
	text := fmt.Sprintf("👥 Choose participants (duration: %s):", timeutil.FormatDuration(duration))
	return t.showParticipants(c, s, text)
}

func (t *Telegram) showParticipants(c tele.Context, s session.Session, text string) error {
	if err := c.Edit(text, participantsKeyboard(t.users.Others(s.Username), s.Draft.Participants)); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return c.Respond()
}

func (t *Telegram) participantHandler(c tele.Context) error {
	s, ok, err := t.withDraft(c)
	if !ok {
		return err
	}
	d := s.Draft
	if d.Date.IsZero() || d.StartTime == "" || d.DurationMinutes == 0 {
		return alert(c, startOver)
	}
	name := c.Data()
	if _, known := t.users.Lookup(name); !known {
		return alert(c, "❌ Unknown user")
	}
	if name == s.Username {
		return alert(c, "❌ You cannot invite yourself")
	}
	if !d.Has(name) {
		free, err := t.app.IsAvailable(t.ctx, name, d.Date, d.StartTime, d.DurationMinutes)
		if err != nil {
			return t.fail(c, err)
		}
		if !free {
			return alert(c, fmt.Sprintf("❌ %s is busy at this time!", name))
		}
	}
	answer := fmt.Sprintf("❌ %s removed", name)
	if d.Toggle(name) {
		answer = fmt.Sprintf("✅ %s added", name)
	}
	if err = t.save(c, s); err != nil {
		return err
	}
	if err = c.Edit(draftText(d.Participants), confirm); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return c.Respond(&tele.CallbackResponse{Text: answer})
}

func (t *Telegram) addMoreHandler(c tele.Context) error {
	s, ok, err := t.withDraft(c)
	if !ok {
		return err
	}
	return t.showParticipants(c, s, "👥 Choose participants:")
}

func (t *Telegram) confirmParticipantsHandler(c tele.Context) error {
	s, ok, err := t.withDraft(c)
	if !ok {
		return err
	}
	d := s.Draft
	id, err := t.app.Create(t.ctx, s.Username, d.Date, d.StartTime, d.DurationMinutes, d.Participants)
	switch {
	case errors.Is(err, models.ErrForbidden):
		return alert(c, "❌ You are not allowed to create meetings")
	case errors.Is(err, models.ErrInvalidMeeting), errors.Is(err, models.ErrMalformedTime):
		return alert(c, startOver)
	case err != nil:
		return t.fail(c, err)
	}
	s.Draft = nil
	if err = t.save(c, s); err != nil {
		return err
	}
	meeting := models.Meeting{
		ID:              id,
		Creator:         s.Username,
		Date:            d.Date,
		StartTime:       d.StartTime,
		DurationMinutes: d.DurationMinutes,
		Participants:    d.Participants,
	}
	if err = c.Edit(createdText(meeting)); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return t.backToMenu(c, s)
}

// backToMenu sends a fresh main menu below the current message.
func (t *Telegram) backToMenu(c tele.Context, s session.Session) error {
	if err := c.Send(chooseAction, mainMenu(t.users.IsCreator(s.Username))); err != nil {
		return fmt.Errorf("tg send message failed: %w", err)
	}
	return c.Respond()
}

func (t *Telegram) myMeetingsHandler(c tele.Context) error {
	s, ok, err := t.loggedIn(c)
	if !ok {
		return err
	}
	agenda, err := t.app.CreatorAgenda(t.ctx, s.Username, t.opts.Workdays)
	if err != nil {
		return t.fail(c, err)
	}
	return t.show(c, creatorAgendaText(agenda))
}

func (t *Telegram) guestMeetingsHandler(c tele.Context) error {
	s, ok, err := t.loggedIn(c)
	if !ok {
		return err
	}
	agenda, err := t.app.ParticipantAgenda(t.ctx, s.Username, t.opts.Workdays)
	if err != nil {
		return t.fail(c, err)
	}
	return t.show(c, guestAgendaText(agenda))
}

func (t *Telegram) calendarHandler(c tele.Context) error {
	if _, ok, err := t.loggedIn(c); !ok {
		return err
	}
	calendar, err := t.app.Calendar(t.ctx, t.opts.Workdays)
	if err != nil {
		return t.fail(c, err)
	}
	return t.show(c, calendarText(calendar))
}

func (t *Telegram) show(c tele.Context, text string) error {
	if err := c.Edit(text, backKeyboard()); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return c.Respond()
}

func (t *Telegram) deleteOldHandler(c tele.Context) error {
	s, ok, err := t.loggedIn(c)
	if !ok {
		return err
	}
	past, err := t.app.PastMeetings(t.ctx, s.Username)
	if err != nil {
		return t.fail(c, err)
	}
	if len(past) == 0 {
		return t.show(c, "✅ You have no past meetings to delete.\n\nAll your meetings are still ahead!")
	}
	if err = c.Edit(pastMeetingsText(len(past)), deleteMeetingsKeyboard(past)); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return c.Respond()
}

func (t *Telegram) deleteMeetingHandler(c tele.Context) error {
	if _, ok, err := t.loggedIn(c); !ok {
		return err
	}
	id, err := strconv.Atoi(c.Data())
	if err != nil {
		return alert(c, "❌ Meeting not found")
	}
	meeting, err := t.app.Meeting(t.ctx, id)
	if errors.Is(err, models.ErrMeetingNotFound) {
		return alert(c, "❌ Meeting not found")
	}
	if err != nil {
		return t.fail(c, err)
	}
	if err = c.Edit(deleteQuestionText(meeting), deleteConfirmationKeyboard(id)); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return c.Respond()
}

func (t *Telegram) confirmDeleteHandler(c tele.Context) error {
	s, ok, err := t.loggedIn(c)
	if !ok {
		return err
	}
	id, err := strconv.Atoi(c.Data())
	if err != nil {
		return alert(c, "❌ Meeting not found")
	}
	meeting, err := t.app.Meeting(t.ctx, id)
	if err == nil {
		err = t.app.Delete(t.ctx, s.Username, id)
	}
	switch {
	case errors.Is(err, models.ErrMeetingNotFound):
		return alert(c, "❌ Meeting not found")
	case errors.Is(err, models.ErrForbidden):
		return alert(c, "❌ This is not your meeting")
	case err != nil:
		return t.fail(c, err)
	}
	if err = c.Edit(deletedText(meeting)); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return t.backToMenu(c, s)
}

func (t *Telegram) cancelDeleteHandler(c tele.Context) error {
	s, ok, err := t.loggedIn(c)
	if !ok {
		return err
	}
	if err = c.Edit("❌ Deletion cancelled."); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return t.backToMenu(c, s)
}

func (t *Telegram) logoutButtonHandler(c tele.Context) error {
	if err := t.sessions.Delete(t.ctx, chatID(c)); err != nil {
		return t.fail(c, err)
	}
	if err := c.Edit("👋 You have logged out."); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return c.Respond()
}

func (t *Telegram) backHandler(c tele.Context) error {
	s, ok, err := t.loggedIn(c)
	if !ok {
		return err
	}
	target := c.Data()
	if target != backMenu && s.Draft == nil {
		return alert(c, startOver)
	}
	switch target {
	case backDates:
		return t.showDates(c)
	case backTimes:
		return t.showTimes(c, s.Draft.Date)
	case backDurations:
		return t.showDurations(c, s.Draft.StartTime)
	case backParticipants:
		return t.showParticipants(c, s, "👥 Choose participants:")
	}
	if s.Draft != nil {
		s.Draft = nil
		if err = t.save(c, s); err != nil {
			return err
		}
	}
	if err = c.Edit(chooseAction, mainMenu(t.users.IsCreator(s.Username))); err != nil {
		return fmt.Errorf("tg edit message failed: %w", err)
	}
	return c.Respond()
}
