// Package advice turns the riding log into a system prompt and asks a hosted
// language model for coaching. Nothing here writes to a document store; a
// failed request only produces an error message for the rider.
package advice

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tonimelisma/motolog/internal/ridelog"
)

// recentSessions is how many of the newest sessions the context lists.
const recentSessions = 5

const instructions = `You are an experienced motocross and off-road riding coach and suspension tuner.
Answer the rider's questions using the log below. Be specific: refer to their bike,
their recent sessions, and their current suspension clickers when relevant.
Account for any active or chronic injuries and never suggest riding through pain.
When recommending clicker changes, give direction and number of clicks from the
current setting. Keep answers short unless asked for detail.`

// titleCase capitalizes free-text labels. A Caser is stateful, so each call
// gets its own.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// SystemPrompt returns the coaching instructions followed by the log
// context for snap.
func SystemPrompt(snap *ridelog.Snapshot, now time.Time) string {
	return instructions + "\n\n" + BuildContext(snap, now)
}

// BuildContext describes the rider, recent riding, and the active
// suspension setup in plain text.
func BuildContext(snap *ridelog.Snapshot, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Today is %s.\n\n", now.Format("Monday, 2 January 2006"))

	writeRider(&b, snap.Profile)
	writeInjuries(&b, snap.Profile.Injuries)
	writeRiding(&b, snap.Sessions, now)
	writeSuspension(&b, snap.Suspension)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeRider(b *strings.Builder, p ridelog.Profile) {
	b.WriteString("RIDER\n")

	line(b, "Name", p.Name)
	line(b, "Class", titleCase(p.Class))

	bike := strings.Join(nonEmpty(p.Year, p.Make, p.Model), " ")
	if p.Engine != "" {
		bike = strings.TrimSpace(bike + " (" + p.Engine + ")")
	}

	line(b, "Bike", bike)
	line(b, "Tires", pair(p.TireFront, p.TireRear))
	line(b, "Pressure (psi)", pair(p.PsiFront, p.PsiRear))
	line(b, "Setup notes", p.SetupNotes)
	b.WriteString("\n")
}

func writeInjuries(b *strings.Builder, injuries []ridelog.Injury) {
	var current []ridelog.Injury

	for _, inj := range injuries {
		if inj.Status != ridelog.InjuryRecovered {
			current = append(current, inj)
		}
	}

	if len(current) == 0 {
		b.WriteString("INJURIES\nNone current.\n\n")
		return
	}

	b.WriteString("INJURIES\n")

	for _, inj := range current {
		fmt.Fprintf(b, "- %s (%s", inj.Description, titleCase(string(inj.Status)))
		if inj.Date != "" {
			fmt.Fprintf(b, ", since %s", inj.Date)
		}

		b.WriteString(")")

		if inj.Notes != "" {
			fmt.Fprintf(b, ": %s", inj.Notes)
		}

		b.WriteString("\n")
	}

	b.WriteString("\n")
}

func writeRiding(b *strings.Builder, sessions []ridelog.Session, now time.Time) {
	sum := ridelog.Summarize(sessions, now)

	b.WriteString("RIDING\n")
	fmt.Fprintf(b, "Sessions logged: %d, total %sh, this week %sh, this month %sh\n",
		sum.Sessions,
		ridelog.FormatHours(sum.TotalHours),
		ridelog.FormatHours(sum.WeekHours),
		ridelog.FormatHours(sum.MonthHours),
	)

	recent := ridelog.Recent(sessions, recentSessions)
	if len(recent) == 0 {
		b.WriteString("No sessions logged yet.\n\n")
		return
	}

	b.WriteString("Recent sessions (newest first):\n")

	for _, s := range recent {
		fmt.Fprintf(b, "- %s %s: %sh", s.Date, s.Track, ridelog.FormatHours(s.Hours))

		if details := nonEmpty(titleCase(s.Conditions), titleCase(s.Type)); len(details) > 0 {
			fmt.Fprintf(b, ", %s", strings.Join(details, ", "))
		}

		fmt.Fprintf(b, ", feeling %d/%d", s.Feeling, ridelog.MaxFeeling)

		if s.Notes != "" {
			fmt.Fprintf(b, ". %s", s.Notes)
		}

		b.WriteString("\n")
	}

	b.WriteString("\n")
}

func writeSuspension(b *strings.Builder, susp ridelog.Suspension) {
	name, p := susp.Active()

	fmt.Fprintf(b, "SUSPENSION (active preset %q of %d)\n", name, len(susp.Presets))
	fmt.Fprintf(b, "Fork: compression %d, rebound %d, sag %dmm", p.ForkComp, p.ForkReb, p.ForkSag)

	if extra := nonEmpty(labeled("spring", p.ForkSpring), labeled("oil", p.ForkOil)); len(extra) > 0 {
		fmt.Fprintf(b, ", %s", strings.Join(extra, ", "))
	}

	fmt.Fprintf(b, "\nShock: high-speed compression %d, low-speed compression %d, rebound %d, sag %dmm",
		p.ShockHiComp, p.ShockLoComp, p.ShockReb, p.ShockSag)

	if p.ShockSpring != "" {
		fmt.Fprintf(b, ", spring %s", p.ShockSpring)
	}

	b.WriteString("\n")
	line(b, "Notes", p.Notes)
}

func line(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}

	fmt.Fprintf(b, "%s: %s\n", label, value)
}

func pair(front, rear string) string {
	if front == "" && rear == "" {
		return ""
	}

	return fmt.Sprintf("front %s, rear %s", orDash(front), orDash(rear))
}

func labeled(label, value string) string {
	if value == "" {
		return ""
	}

	return label + " " + value
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func nonEmpty(values ...string) []string {
	out := values[:0:0]

	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}

	return out
}
