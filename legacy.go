package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const fullTermEvents = 8

// Legacy is the end-of-game verdict.
type Legacy struct {
	Title      string   `json:"title"`
	Heading    string   `json:"heading"`
	Message    string   `json:"message"`
	Icon       string   `json:"icon"`
	Grade      string   `json:"grade"`
	GradeColor string   `json:"gradeColor"`
	Elected    bool     `json:"elected"`
	FullTerm   bool     `json:"fullTerm"`
	Approval   int      `json:"approval"`
	Days       int      `json:"days"`
	Decisions  []string `json:"decisions"`
}

func (e *Engine) Legacy() Legacy {
	return legacyFor(e.state, e.content)
}

func legacyFor(s GameState, content *Content) Legacy {
	elected := s.ElectionResult == ElectionWin
	approval := s.ApprovalRating
	fullTerm := len(s.EventsCompleted) >= fullTermEvents && approval > impeachmentApproval

	l := Legacy{
		Elected:   elected,
		FullTerm:  fullTerm,
		Approval:  approval,
		Days:      s.DaysInOffice,
		Decisions: decisionTitles(s.EventsCompleted, content),
	}
	l.Grade, l.GradeColor = gradeFor(elected, approval)
	if elected {
		l.Heading = "President " + s.PlayerName
	} else {
		l.Heading = "Candidate " + s.PlayerName
	}

	switch {
	case !elected:
		l.Title, l.Icon = "Campaign Ended", "📊"
		l.Message = "The campaign came up short. There will be other elections."
	case approval <= impeachmentApproval:
		l.Title, l.Icon = "Impeached", "⚖️"
		l.Message = "Approval collapsed, the party walked away and Congress opened impeachment proceedings."
	case fullTerm && approval >= 70:
		l.Title, l.Icon = "Legendary President", "🏆"
		l.Message = fmt.Sprintf("President %s leaves office among the most admired leaders the nation has known.", s.PlayerName)
	case fullTerm && approval >= 50:
		l.Title, l.Icon = "Successful Presidency", "🎖️"
		l.Message = "Historians will judge this term kindly. Hard calls were made and most of them held up."
	case fullTerm:
		l.Title, l.Icon = "Controversial Legacy", "📜"
		l.Message = "A term of wins and stumbles in equal measure. History has not made up its mind."
	default:
		l.Title, l.Icon = "End of Term", "📜"
		l.Message = "The term is over. The country moves on, shaped by the decisions made in office."
	}
	return l
}

func gradeFor(elected bool, approval int) (grade, color string) {
	switch {
	case !elected:
		return "N/A", "muted"
	case approval >= 80:
		return "A+", "victory"
	case approval >= 70:
		return "A", "victory"
	case approval >= 60:
		return "B+", "gold"
	case approval >= 50:
		return "B", "gold"
	case approval >= 40:
		return "C", "accent"
	case approval >= 30:
		return "D", "destructive"
	default:
		return "F", "destructive"
	}
}

var idTitler = cases.Title(language.English)

// decisionTitles names completed events by their content title, falling back
// to a title-cased id for events the content no longer has.
func decisionTitles(ids []string, content *Content) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if content != nil {
			if ev, ok := content.EventByID(id); ok {
				out = append(out, ev.Title)
				continue
			}
		}
		out = append(out, idTitler.String(strings.ReplaceAll(id, "-", " ")))
	}
	return out
}

// Headlines is the news ticker for the current state.
func (e *Engine) Headlines() []string {
	return headlinesFor(e.state)
}

func headlinesFor(s GameState) []string {
	name := s.PlayerName
	out := []string{
		fmt.Sprintf("📰 BREAKING: %s administration approval at %d%%", name, s.ApprovalRating),
	}
	if s.DaysInOffice > 0 {
		out = append(out, fmt.Sprintf("📊 The %s presidency enters its %s day", name, humanize.Ordinal(s.DaysInOffice)))
	} else {
		out = append(out, fmt.Sprintf("💵 %s campaign war chest stands at $%s", name, humanize.Comma(int64(s.CampaignFunds))))
	}

	switch s.Phase {
	case PhaseDebate:
		out = append(out,
			"🎤 Debate night draws record viewership",
			"📺 Analysts brace for a sharp policy fight",
			"🗳️ Undecided voters tune in",
		)
	case PhaseElection:
		out = append(out,
			"🗳️ Polls open across the country",
			"📊 Record turnout expected",
			"🇺🇸 The nation watches the count",
		)
	case PhaseGoverning:
		var mood string
		switch {
		case s.ApprovalRating > 60:
			mood = fmt.Sprintf("📈 %s riding strong public support", name)
		case s.ApprovalRating < 40:
			mood = "📉 Confidence in the administration is slipping"
		default:
			mood = "⚖️ The public remains split on key issues"
		}
		out = append(out,
			"🏛️ Congress waits on the White House",
			"🌍 World leaders watch the new administration",
			mood,
		)
	default:
		out = append(out,
			fmt.Sprintf("🎤 %s rallies supporters across the nation", name),
			"📊 Polls show a tight race",
			"💼 The economy tops voter concerns",
		)
	}
	return out
}
