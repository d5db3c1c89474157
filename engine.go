package main

import (
	"errors"
	"strings"
)

type Phase string

const (
	PhaseTitle     Phase = "title"
	PhaseCampaign  Phase = "campaign"
	PhaseDebate    Phase = "debate"
	PhaseElection  Phase = "election"
	PhaseGoverning Phase = "governing"
	PhaseGameOver  Phase = "gameOver"
)

var AllPhases = []Phase{PhaseTitle, PhaseCampaign, PhaseDebate, PhaseElection, PhaseGoverning, PhaseGameOver}

func (p Phase) Valid() bool {
	switch p {
	case PhaseTitle, PhaseCampaign, PhaseDebate, PhaseElection, PhaseGoverning, PhaseGameOver:
		return true
	}
	return false
}

const (
	initialApproval      = 50
	initialCampaignFunds = 100000
	maxPolicies          = 5
	minDebatePolicies    = 3
	impeachmentApproval  = 20
)

var (
	ErrWrongPhase         = errors.New("not allowed in the current phase")
	ErrEmptyName          = errors.New("player name is empty")
	ErrNotEnoughPolicies  = errors.New("at least 3 policies are required")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrNotAnswered        = errors.New("answer the current question first")
	ErrLastQuestion       = errors.New("no more debate questions")
	ErrUnknownAnswer      = errors.New("unknown answer")
	ErrDebateUnfinished   = errors.New("debate is not finished")
	ErrElectionAlreadyRun = errors.New("election already decided")
	ErrElectionNotWon     = errors.New("election was not won")
	ErrElectionNotLost    = errors.New("election was not lost")
	ErrUnknownEvent       = errors.New("unknown event")
	ErrNoCurrentEvent     = errors.New("no current event")
	ErrUnknownChoice      = errors.New("unknown choice")
	ErrChoiceAlreadyMade  = errors.New("a choice was already made for this event")
	ErrNoChoice           = errors.New("make a choice first")
	ErrHiringRequired     = errors.New("a cabinet position must be filled first")
	ErrUnknownPosition    = errors.New("unknown cabinet position")
	ErrUnknownCandidate   = errors.New("unknown cabinet candidate")
	ErrNothingToResume    = errors.New("no game to resume")
)

// GameState is the canonical record of one play session.
type GameState struct {
	Phase                  Phase           `json:"phase"`
	PlayerName             string          `json:"playerName"`
	ApprovalRating         int             `json:"approvalRating"`
	CampaignFunds          int             `json:"campaignFunds"`
	SelectedPolicies       []Policy        `json:"selectedPolicies"`
	DebateScore            int             `json:"debateScore"`
	ElectionResult         ElectionResult  `json:"electionResult,omitempty"`
	DaysInOffice           int             `json:"daysInOffice"`
	EventsCompleted        []string        `json:"eventsCompleted"`
	CurrentEventID         string          `json:"currentEventId,omitempty"`
	Cabinet                Cabinet         `json:"cabinet"`
	PendingCabinetPosition CabinetPosition `json:"pendingCabinetPosition,omitempty"`
}

func (s GameState) clone() GameState {
	out := s
	out.SelectedPolicies = append([]Policy{}, s.SelectedPolicies...)
	out.EventsCompleted = append([]string{}, s.EventsCompleted...)
	out.Cabinet = s.Cabinet.clone()
	return out
}

// Engine owns one GameState and WorldState and is the only way to mutate
// them. It is not safe for concurrent use.
type Engine struct {
	content *Content
	state   GameState
	world   WorldState

	debateIndex    int
	debateAnswered bool
	choice         *EventChoice
	choiceIndex    int
	election       *ElectionOutcome
	resumePhase    Phase
}

func NewEngine(content *Content) *Engine {
	e := &Engine{content: content}
	e.ResetGame()
	return e
}

func (e *Engine) newGameState() GameState {
	return GameState{
		Phase:            PhaseTitle,
		ApprovalRating:   initialApproval,
		CampaignFunds:    initialCampaignFunds,
		SelectedPolicies: []Policy{},
		EventsCompleted:  []string{},
		Cabinet:          newCabinet(e.content.Incumbents),
	}
}

func (e *Engine) Content() *Content { return e.content }

// State returns a copy; mutating it does not affect the engine.
func (e *Engine) State() GameState { return e.state.clone() }

func (e *Engine) World() WorldState { return e.world.clone() }

func (e *Engine) Phase() Phase { return e.state.Phase }

func (e *Engine) SetPlayerName(name string) error {
	if e.state.Phase != PhaseTitle {
		return ErrWrongPhase
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	e.state.PlayerName = name
	return nil
}

func (e *Engine) StartCampaign() error {
	// A game left through GoToTitle is resumed or reset, never restarted
	// on top of its old state.
	if e.state.Phase != PhaseTitle || e.resumePhase != "" {
		return ErrWrongPhase
	}
	if e.state.PlayerName == "" {
		return ErrEmptyName
	}
	e.state.Phase = PhaseCampaign
	e.resumePhase = ""
	return nil
}

// SelectPolicy adds a policy to the platform and applies its net approval.
// It reports false when the policy is already selected or the platform is full.
func (e *Engine) SelectPolicy(p Policy) bool {
	if len(e.state.SelectedPolicies) >= maxPolicies || e.policySelected(p.ID) {
		return false
	}
	e.state.SelectedPolicies = append(e.state.SelectedPolicies, p)
	e.state.ApprovalRating = clampInt(e.state.ApprovalRating+p.NetApproval(), 0, 100)
	return true
}

func (e *Engine) RemovePolicy(id string) bool {
	for i, p := range e.state.SelectedPolicies {
		if p.ID != id {
			continue
		}
		e.state.SelectedPolicies = append(e.state.SelectedPolicies[:i:i], e.state.SelectedPolicies[i+1:]...)
		e.state.ApprovalRating = clampInt(e.state.ApprovalRating-p.NetApproval(), 0, 100)
		return true
	}
	return false
}

func (e *Engine) policySelected(id string) bool {
	for _, p := range e.state.SelectedPolicies {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (e *Engine) CanStartDebate() bool {
	return len(e.state.SelectedPolicies) >= minDebatePolicies
}

// PoliciesNeeded is how many more policies the platform needs before the debate.
func (e *Engine) PoliciesNeeded() int {
	return maxInt(0, minDebatePolicies-len(e.state.SelectedPolicies))
}

func (e *Engine) StartDebate() error {
	if e.state.Phase != PhaseCampaign {
		return ErrWrongPhase
	}
	if !e.CanStartDebate() {
		return ErrNotEnoughPolicies
	}
	e.state.Phase = PhaseDebate
	e.state.DebateScore = 0
	e.debateIndex = 0
	e.debateAnswered = false
	return nil
}

// UpdateApproval applies a clamped delta. While governing, sinking to the
// impeachment line ends the game.
func (e *Engine) UpdateApproval(delta int) {
	e.state.ApprovalRating = clampInt(e.state.ApprovalRating+delta, 0, 100)
	e.checkImpeachment()
}

func (e *Engine) checkImpeachment() {
	if e.state.Phase == PhaseGoverning && e.state.ApprovalRating <= impeachmentApproval {
		e.state.Phase = PhaseGameOver
	}
}

// UpdateDebateScore moves the unclamped debate tally and live approval together.
func (e *Engine) UpdateDebateScore(points int) {
	e.state.DebateScore += points
	e.UpdateApproval(points)
}

func (e *Engine) CurrentDebateQuestion() (DebateQuestion, int, bool) {
	q, ok := e.content.DebateQuestionAt(e.debateIndex)
	return q, e.debateIndex, ok
}

func (e *Engine) DebateAnswered() bool { return e.debateAnswered }

func (e *Engine) DebateComplete() bool {
	return e.debateAnswered && e.debateIndex == len(e.content.Debates)-1
}

func (e *Engine) AnswerDebateQuestion(i int) (DebateAnswer, error) {
	if e.state.Phase != PhaseDebate {
		return DebateAnswer{}, ErrWrongPhase
	}
	if e.debateAnswered {
		return DebateAnswer{}, ErrAlreadyAnswered
	}
	q, _, ok := e.CurrentDebateQuestion()
	if !ok || i < 0 || i >= len(q.Answers) {
		return DebateAnswer{}, ErrUnknownAnswer
	}
	a := q.Answers[i]
	e.UpdateDebateScore(a.Impact)
	e.debateAnswered = true
	return a, nil
}

func (e *Engine) NextDebateQuestion() error {
	if e.state.Phase != PhaseDebate {
		return ErrWrongPhase
	}
	if !e.debateAnswered {
		return ErrNotAnswered
	}
	if e.debateIndex >= len(e.content.Debates)-1 {
		return ErrLastQuestion
	}
	e.debateIndex++
	e.debateAnswered = false
	return nil
}

func (e *Engine) StartElection() error {
	if e.state.Phase != PhaseDebate {
		return ErrWrongPhase
	}
	if !e.DebateComplete() {
		return ErrDebateUnfinished
	}
	e.state.Phase = PhaseElection
	e.state.ElectionResult = ""
	e.election = nil
	return nil
}

// RunElection decides the election once, using the current approval.
func (e *Engine) RunElection(rng RandomSource) (ElectionOutcome, error) {
	if e.state.Phase != PhaseElection {
		return ElectionOutcome{}, ErrWrongPhase
	}
	if e.state.ElectionResult != "" {
		return ElectionOutcome{}, ErrElectionAlreadyRun
	}
	out := simulateElection(e.content.Units, e.state.ApprovalRating, rng)
	e.state.ElectionResult = out.Result()
	e.election = &out
	return out, nil
}

// LastElection is the outcome of RunElection in this session, if any.
func (e *Engine) LastElection() (ElectionOutcome, bool) {
	if e.election == nil {
		return ElectionOutcome{}, false
	}
	return *e.election, true
}

func (e *Engine) StartGoverning() error {
	if e.state.Phase != PhaseElection {
		return ErrWrongPhase
	}
	if e.state.ElectionResult != ElectionWin {
		return ErrElectionNotWon
	}
	e.state.Phase = PhaseGoverning
	e.state.DaysInOffice = 1
	if err := e.SetCurrentEvent(e.content.Events.Entry); err != nil {
		return err
	}
	e.checkImpeachment()
	return nil
}

func (e *Engine) ConcedeElection() error {
	if e.state.Phase != PhaseElection {
		return ErrWrongPhase
	}
	if e.state.ElectionResult != ElectionLose {
		return ErrElectionNotLost
	}
	e.state.Phase = PhaseGameOver
	return nil
}

// SetPhase only follows the edges of the phase machine that have no
// dedicated operation: ending the game and returning to the title screen.
func (e *Engine) SetPhase(p Phase) error {
	switch p {
	case PhaseTitle:
		return e.GoToTitle()
	case PhaseGameOver:
		switch e.state.Phase {
		case PhaseGoverning:
			e.state.Phase = PhaseGameOver
			e.choice = nil
			return nil
		case PhaseElection:
			return e.ConcedeElection()
		}
	}
	return ErrWrongPhase
}

func (e *Engine) AdvanceDay() {
	e.state.DaysInOffice++
}

func (e *Engine) CompleteEvent(id string) {
	e.state.EventsCompleted = append(e.state.EventsCompleted, id)
}

func (e *Engine) CurrentEvent() (GovernmentEvent, bool) {
	return e.content.EventByID(e.state.CurrentEventID)
}

// SetCurrentEvent moves the pointer into the event graph. An empty id clears
// it. Landing on a node that needs a vacant seat filled raises a hiring
// requirement.
func (e *Engine) SetCurrentEvent(id string) error {
	if id == "" {
		e.state.CurrentEventID = ""
		e.state.PendingCabinetPosition = ""
		e.choice = nil
		return nil
	}
	ev, ok := e.content.EventByID(id)
	if !ok {
		return ErrUnknownEvent
	}
	e.state.CurrentEventID = id
	e.choice = nil
	e.state.PendingCabinetPosition = e.hiringNeededAt(ev)
	return nil
}

func (e *Engine) hiringNeededAt(ev GovernmentEvent) CabinetPosition {
	if pos := ev.TriggerCabinetHiring; pos != "" && !e.state.Cabinet.Filled(pos) {
		return pos
	}
	for _, c := range ev.Choices {
		if pos := c.RequiresCabinetHiring; pos != "" && !e.state.Cabinet.Filled(pos) {
			return pos
		}
	}
	return ""
}

// HiringRequirement reports the vacant position blocking the current event.
func (e *Engine) HiringRequirement() (CabinetPosition, bool) {
	pos := e.state.PendingCabinetPosition
	if pos == "" || e.state.Cabinet.Filled(pos) {
		return "", false
	}
	return pos, true
}

func (e *Engine) SelectedChoice() (EventChoice, bool) {
	if e.choice == nil {
		return EventChoice{}, false
	}
	return *e.choice, true
}

// ChooseEventOption applies choice i of the current event. One choice per visit.
func (e *Engine) ChooseEventOption(i int) (EventChoice, error) {
	if e.state.Phase != PhaseGoverning {
		return EventChoice{}, ErrWrongPhase
	}
	ev, ok := e.CurrentEvent()
	if !ok {
		return EventChoice{}, ErrNoCurrentEvent
	}
	if e.choice != nil {
		return EventChoice{}, ErrChoiceAlreadyMade
	}
	if i < 0 || i >= len(ev.Choices) {
		return EventChoice{}, ErrUnknownChoice
	}
	c := ev.Choices[i]
	e.choice = &c
	e.choiceIndex = i
	e.UpdateApproval(c.ApprovalChange)
	e.UpdateWorldState(ev.Category, c.ApprovalChange)
	return c, nil
}

// ContinueEvent closes the current event and follows the chosen edge. A
// terminal choice ends the game.
func (e *Engine) ContinueEvent() error {
	if e.state.Phase != PhaseGoverning {
		return ErrWrongPhase
	}
	if e.hiringBlocked() {
		return ErrHiringRequired
	}
	if e.choice == nil {
		return ErrNoChoice
	}
	c := *e.choice
	if c.NextEventID != "" && !e.content.Events.Has(c.NextEventID) {
		return ErrUnknownEvent
	}

	e.CompleteEvent(e.state.CurrentEventID)
	e.AdvanceDay()
	e.choice = nil
	if c.NextEventID == "" {
		e.state.Phase = PhaseGameOver
		return nil
	}
	if c.FireCabinetMember != "" {
		delete(e.state.Cabinet, c.FireCabinetMember)
	}
	return e.SetCurrentEvent(c.NextEventID)
}

func (e *Engine) hiringBlocked() bool {
	if _, pending := e.HiringRequirement(); pending {
		return true
	}
	if e.choice != nil {
		if pos := e.choice.RequiresCabinetHiring; pos != "" && !e.state.Cabinet.Filled(pos) {
			return true
		}
	}
	if ev, ok := e.CurrentEvent(); ok && ev.TriggerCabinetHiring != "" && !e.state.Cabinet.Filled(ev.TriggerCabinetHiring) {
		return true
	}
	return false
}

func (e *Engine) FireCabinetMember(pos CabinetPosition) error {
	if !pos.Valid() {
		return ErrUnknownPosition
	}
	delete(e.state.Cabinet, pos)
	return nil
}

// HireCabinetMember seats m, replacing whoever held the position.
func (e *Engine) HireCabinetMember(m CabinetMember) error {
	if !m.Position.Valid() {
		return ErrUnknownPosition
	}
	e.state.Cabinet[m.Position] = m
	if e.state.PendingCabinetPosition == m.Position {
		e.state.PendingCabinetPosition = ""
	}
	return nil
}

func (e *Engine) HireCandidate(id string) error {
	cand, ok := e.content.CandidateByID(id)
	if !ok {
		return ErrUnknownCandidate
	}
	return e.HireCabinetMember(cand.Member())
}

func (e *Engine) CabinetSummary() CabinetSummary {
	return e.state.Cabinet.Summary()
}

func (e *Engine) SortedCabinet(by CabinetSort) []CabinetMember {
	return e.state.Cabinet.Sorted(by)
}

func (e *Engine) UpdateWorldState(category EventCategory, approvalDelta int) {
	e.world.apply(category, approvalDelta)
}

// GoToTitle leaves the game without resetting it. A finished game cannot
// leave gameOver except through ResetGame.
func (e *Engine) GoToTitle() error {
	switch e.state.Phase {
	case PhaseTitle:
		return nil
	case PhaseGameOver:
		return ErrWrongPhase
	}
	e.resumePhase = e.state.Phase
	e.state.Phase = PhaseTitle
	return nil
}

// ResumeFromTitle returns to the phase GoToTitle left.
func (e *Engine) ResumeFromTitle() error {
	if e.state.Phase != PhaseTitle {
		return ErrWrongPhase
	}
	if e.resumePhase == "" {
		return ErrNothingToResume
	}
	e.state.Phase = e.resumePhase
	e.resumePhase = ""
	return nil
}

func (e *Engine) CanResume() bool {
	return e.state.Phase == PhaseTitle && e.resumePhase != ""
}

func (e *Engine) ResetGame() {
	e.state = e.newGameState()
	e.world = newWorldState()
	e.debateIndex = 0
	e.debateAnswered = false
	e.choice = nil
	e.election = nil
	e.resumePhase = ""
}

func clampInt(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
