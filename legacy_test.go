package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLegacyVerdicts(t *testing.T) {
	eight := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	tests := []struct {
		name     string
		state    GameState
		title    string
		grade    string
		fullTerm bool
	}{
		{"lost election", GameState{ElectionResult: ElectionLose, ApprovalRating: 45}, "Campaign Ended", "N/A", false},
		{"impeached", GameState{ElectionResult: ElectionWin, ApprovalRating: 15, EventsCompleted: eight}, "Impeached", "F", false},
		{"legendary", GameState{ElectionResult: ElectionWin, ApprovalRating: 75, EventsCompleted: eight}, "Legendary President", "A", true},
		{"successful", GameState{ElectionResult: ElectionWin, ApprovalRating: 55, EventsCompleted: eight}, "Successful Presidency", "B", true},
		{"controversial", GameState{ElectionResult: ElectionWin, ApprovalRating: 30, EventsCompleted: eight}, "Controversial Legacy", "D", true},
		{"short term", GameState{ElectionResult: ElectionWin, ApprovalRating: 65, EventsCompleted: eight[:3]}, "End of Term", "B+", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.state.PlayerName = "Sam"
			l := legacyFor(tt.state, nil)
			assert.Equal(t, tt.title, l.Title)
			assert.Equal(t, tt.grade, l.Grade)
			assert.Equal(t, tt.fullTerm, l.FullTerm)
			assert.NotEmpty(t, l.Message)
			assert.NotEmpty(t, l.GradeColor)
		})
	}
}

func TestLegacyHeadingAndGrades(t *testing.T) {
	assert.Equal(t, "Candidate Sam", legacyFor(GameState{PlayerName: "Sam"}, nil).Heading)
	assert.Equal(t, "President Sam", legacyFor(GameState{PlayerName: "Sam", ElectionResult: ElectionWin}, nil).Heading)

	grades := map[int]string{100: "A+", 80: "A+", 79: "A", 60: "B+", 50: "B", 40: "C", 30: "D", 29: "F"}
	for approval, want := range grades {
		got, _ := gradeFor(true, approval)
		assert.Equal(t, want, got, approval)
	}
}

func TestDecisionTitles(t *testing.T) {
	got := decisionTitles([]string{"inauguration", "old-event"}, testContent(t))
	assert.Equal(t, []string{"Inauguration Day", "Old Event"}, got)
	assert.Equal(t, []string{"Cabinet Crisis"}, decisionTitles([]string{"cabinet-crisis"}, nil))
}

func TestHeadlines(t *testing.T) {
	campaign := headlinesFor(GameState{PlayerName: "Alex", Phase: PhaseCampaign, ApprovalRating: 62, CampaignFunds: 100000})
	assert.Len(t, campaign, 5)
	assert.Equal(t, "📰 BREAKING: Alex administration approval at 62%", campaign[0])
	assert.Equal(t, "💵 Alex campaign war chest stands at $100,000", campaign[1])
	assert.Equal(t, "🎤 Alex rallies supporters across the nation", campaign[2])

	governing := headlinesFor(GameState{PlayerName: "Alex", Phase: PhaseGoverning, ApprovalRating: 62, DaysInOffice: 3})
	assert.Equal(t, "📊 The Alex presidency enters its 3rd day", governing[1])
	assert.Equal(t, "📈 Alex riding strong public support", governing[4])

	slipping := headlinesFor(GameState{PlayerName: "Alex", Phase: PhaseGoverning, ApprovalRating: 35, DaysInOffice: 1})
	assert.Equal(t, "📉 Confidence in the administration is slipping", slipping[4])
}
