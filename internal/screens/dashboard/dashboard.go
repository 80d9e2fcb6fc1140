// Package dashboard charts study time per topic and quiz scores over a
// selectable recency window.
package dashboard

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/VictorPerezCardoso/cotes/internal/history"
	"github.com/VictorPerezCardoso/cotes/internal/model"
	"github.com/VictorPerezCardoso/cotes/internal/router"
	"github.com/VictorPerezCardoso/cotes/internal/screen"
	"github.com/VictorPerezCardoso/cotes/internal/study"
	"github.com/VictorPerezCardoso/cotes/internal/ui/components"
	"github.com/VictorPerezCardoso/cotes/internal/ui/layout"
	"github.com/VictorPerezCardoso/cotes/internal/ui/theme"
)

// windows the user can cycle through with tab. Zero means everything.
var windows = []int{7, 30, 0}

// DashboardScreen summarizes the ledger: minutes per topic and recent
// quiz scores.
type DashboardScreen struct {
	tracker *study.Tracker
	window  int // index into windows
	confirm bool
}

var _ screen.Screen = (*DashboardScreen)(nil)
var _ screen.KeyHintProvider = (*DashboardScreen)(nil)

func New(tracker *study.Tracker) *DashboardScreen {
	return &DashboardScreen{tracker: tracker}
}

func (s *DashboardScreen) Init() tea.Cmd { return nil }

func (s *DashboardScreen) Title() string { return "Dashboard" }

func (s *DashboardScreen) KeyHints() []layout.KeyHint {
	if s.confirm {
		return []layout.KeyHint{
			{Key: "Y", Description: "Delete everything"},
			{Key: "N", Description: "Keep"},
		}
	}
	return []layout.KeyHint{
		{Key: "Tab", Description: "Window"},
		{Key: "X", Description: "Delete all"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *DashboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	if s.confirm {
		if key.String() == "y" || key.String() == "Y" {
			if err := s.tracker.Ledger().DeleteAll(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "warning: could not clear history: %v\n", err)
			}
		}
		s.confirm = false
		return s, nil
	}

	switch key.String() {
	case "esc":
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	case "tab":
		s.window = (s.window + 1) % len(windows)
	case "x", "X":
		if s.tracker.Ledger().Len() > 0 {
			s.confirm = true
		}
	}
	return s, nil
}

func windowLabel(days int) string {
	switch days {
	case 0:
		return "all time"
	default:
		return fmt.Sprintf("last %d days", days)
	}
}

func (s *DashboardScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	days := windows[s.window]
	sessions := s.tracker.Ledger().FilterByRecency(time.Now(), days)

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render(
		"Dashboard · "+windowLabel(days)))

	if s.confirm {
		sections = append(sections, components.Panel(
			theme.Incorrect.Render("Delete the entire history? y/n"), cw))
	}

	if len(sessions) == 0 {
		sections = append(sections, theme.Hint.Render("Nothing in this window yet."))
		return components.CenteredFrame(strings.Join(sections, "\n\n"), width, height)
	}

	sections = append(sections, s.renderMinutes(sessions, cw))
	sections = append(sections, s.renderScores(sessions, cw))

	return components.CenteredFrame(strings.Join(sections, "\n\n"), width, height)
}

func (s *DashboardScreen) renderMinutes(sessions []model.StudySession, cw int) string {
	byTopic := history.MinutesByTopic(sessions)
	if len(byTopic) == 0 {
		return components.Panel(theme.Subtitle.Render("time per topic")+"\n\n"+
			theme.Hint.Render("no study time recorded"), cw)
	}

	max := byTopic[0].Minutes
	var rows []string
	for _, tm := range byTopic {
		frac := 0.0
		if max > 0 {
			frac = float64(tm.Minutes) / float64(max)
		}
		bar := components.NewProgressBar("", frac, false, cw/2).View()
		rows = append(rows, fmt.Sprintf("%-20s %s %4d min",
			clip(tm.Topic, 20), bar, tm.Minutes))
	}
	return components.Panel(theme.Subtitle.Render("time per topic")+"\n\n"+
		strings.Join(rows, "\n"), cw)
}

func (s *DashboardScreen) renderScores(sessions []model.StudySession, cw int) string {
	points := history.QuizScores(sessions)
	if len(points) == 0 {
		return components.Panel(theme.Subtitle.Render("quiz scores")+"\n\n"+
			theme.Hint.Render("no quizzes taken"), cw)
	}

	var rows []string
	for _, p := range points {
		style := theme.Incorrect
		if p.Percent >= 70 {
			style = theme.Correct
		}
		rows = append(rows, fmt.Sprintf("%s  %-20s %s",
			p.Date, clip(p.Topic, 20),
			style.Render(fmt.Sprintf("%d/%d (%.0f%%)", p.Score, p.Total, p.Percent))))
	}
	return components.Panel(theme.Subtitle.Render("quiz scores")+"\n\n"+
		strings.Join(rows, "\n"), cw)
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
