package telegram

import (
	"fmt"
	"strings"

	"github.com/pershin-daniil/MeetBot/pkg/models"
)

const helpText = `📖 Commands:

/start - start working with the bot
/logout - log out
/help - show this help

Use the menu buttons to navigate.`

func meetingsWord(n int) string {
	if n == 1 {
		return "meeting"
	}
	return "meetings"
}

func participantsList(participants []string, empty string) string {
	if len(participants) == 0 {
		return empty
	}
	return strings.Join(participants, ", ")
}

func draftText(participants []string) string {
	var b strings.Builder
	b.WriteString("Added participants:\n")
	if len(participants) == 0 {
		b.WriteString("none\n")
	}
	for _, p := range participants {
		b.WriteString("• " + p + "\n")
	}
	b.WriteString("\nAdd more?")
	return b.String()
}

func createdText(m models.Meeting) string {
	return fmt.Sprintf("✅ Meeting created!\n\nDate: %s\nTime: %s - %s\nParticipants: %s\n\nParticipants have been notified.",
		m.Date.Label(), m.StartTime, m.EndTime(), participantsList(m.Participants, "no participants"))
}

func deleteQuestionText(m models.Meeting) string {
	return fmt.Sprintf("❓ Are you sure you want to delete this meeting?\n\n📅 Date: %s\n🕐 Time: %s - %s\n👥 Participants: %s\n\n⚠️ This cannot be undone!",
		m.Date.Label(), m.StartTime, m.EndTime(), participantsList(m.Participants, "none"))
}

func deletedText(m models.Meeting) string {
	return fmt.Sprintf("✅ Meeting deleted!\n\n📅 %s, %s - %s", m.Date.Label(), m.StartTime, m.EndTime())
}

func pastMeetingsText(n int) string {
	return fmt.Sprintf("🗑️ Past meetings (%d):\n\nChoose a meeting to delete:", n)
}

// creatorAgendaText renders the "created by me" view.
func creatorAgendaText(days []models.DayAgenda) string {
	var b strings.Builder
	b.WriteString("📋 Meetings you created:\n\n")
	for _, d := range days {
		switch len(d.Meetings) {
		case 0:
			fmt.Fprintf(&b, "📅 %s - you have no meetings\n\n", d.Day.Label)
		case 1:
			m := d.Meetings[0]
			fmt.Fprintf(&b, "📅 %s - you have a meeting from %s to %s, participants: %s\n\n",
				d.Day.Label, m.StartTime, m.EndTime(), participantsList(m.Participants, "none"))
		default:
			fmt.Fprintf(&b, "📅 %s - you have %d meetings on this day:\n", d.Day.Label, len(d.Meetings))
			for _, m := range d.Meetings {
				fmt.Fprintf(&b, "    from %s to %s, participants: %s\n",
					m.StartTime, m.EndTime(), participantsList(m.Participants, "none"))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func guestAgendaText(days []models.DayAgenda) string {
	var b strings.Builder
	b.WriteString("📋 Your meetings:\n\n")
	for _, d := range days {
		if len(d.Meetings) == 0 {
			fmt.Fprintf(&b, "📅 %s - you have no meetings on this day\n\n", d.Day.Label)
			continue
		}
		fmt.Fprintf(&b, "📅 %s - you have %d %s on this day:\n", d.Day.Label, len(d.Meetings), meetingsWord(len(d.Meetings)))
		for _, m := range d.Meetings {
			fmt.Fprintf(&b, "    from %s to %s with %s. Participants: %s\n",
				m.StartTime, m.EndTime(), m.Creator, participantsList(m.Participants, "none"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func calendarText(days []models.DayCalendar) string {
	var b strings.Builder
	b.WriteString("📅 Meeting calendar:\n\n")
	for _, d := range days {
		switch len(d.Groups) {
		case 0:
			fmt.Fprintf(&b, "%s - nobody has meetings on this day\n\n", d.Day.Label)
		case 1:
			g := d.Groups[0]
			fmt.Fprintf(&b, "%s - %s has %d %s on this day:\n", d.Day.Label, g.Creator, len(g.Meetings), meetingsWord(len(g.Meetings)))
			writeMeetings(&b, "    ", g.Meetings)
			b.WriteString("\n")
		default:
			fmt.Fprintf(&b, "%s - %d meetings on this day.\n", d.Day.Label, d.Total())
			for _, g := range d.Groups {
				fmt.Fprintf(&b, "    %s has %d %s:\n", g.Creator, len(g.Meetings), meetingsWord(len(g.Meetings)))
				writeMeetings(&b, "        ", g.Meetings)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeMeetings(b *strings.Builder, indent string, meetings []models.Meeting) {
	for _, m := range meetings {
		fmt.Fprintf(b, "%sfrom %s to %s. Participants: %s\n",
			indent, m.StartTime, m.EndTime(), participantsList(m.Participants, "none"))
	}
}
