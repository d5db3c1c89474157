package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrUnknownPolicy = errors.New("unknown policy")
	errBadArgument   = errors.New("expected a number")
)

// actionHelp lists every action both drivers accept, in play order.
var actionHelp = []struct{ Name, Arg, Help string }{
	{"name", "<name>", "set the candidate's name"},
	{"start_campaign", "", "begin the campaign"},
	{"resume", "", "return to the game left from the title screen"},
	{"select_policy", "<policy id>", "add a policy to the platform"},
	{"remove_policy", "<policy id>", "drop a policy from the platform"},
	{"start_debate", "", "go to the debate (needs 3 policies)"},
	{"answer", "<n>", "answer the current debate question"},
	{"next", "", "next debate question, or the election after the last one"},
	{"start_election", "", "head to election night"},
	{"run_election", "", "count the votes"},
	{"start_governing", "", "take the oath of office"},
	{"concede", "", "concede a lost election"},
	{"choose", "<n>", "pick an option for the current event"},
	{"continue", "", "move on to the next event"},
	{"hire", "<candidate id>", "appoint a cabinet candidate"},
	{"fire", "<position>", "vacate a cabinet position"},
	{"title", "", "leave to the title screen without resetting"},
	{"reset", "", "start over"},
}

// applyAction runs one named action against e and returns the notice to
// show the player. Rejected actions leave e unchanged.
func applyAction(e *Engine, rng RandomSource, action, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	switch strings.TrimSpace(strings.ToLower(action)) {
	case "name":
		if err := e.SetPlayerName(arg); err != nil {
			return "", err
		}
		return fmt.Sprintf("Welcome, %s.", e.state.PlayerName), nil
	case "start_campaign":
		if err := e.StartCampaign(); err != nil {
			return "", err
		}
		return "The campaign begins. Build a platform of at least 3 policies.", nil
	case "resume":
		if err := e.ResumeFromTitle(); err != nil {
			return "", err
		}
		return "Welcome back.", nil
	case "select_policy":
		p, ok := e.content.PolicyByID(arg)
		if !ok {
			return "", ErrUnknownPolicy
		}
		if !e.SelectPolicy(p) {
			if e.policySelected(p.ID) {
				return fmt.Sprintf("%s is already on your platform.", p.Name), nil
			}
			return fmt.Sprintf("Your platform is full (%d policies).", maxPolicies), nil
		}
		return fmt.Sprintf("%s added (%+d approval).", p.Name, p.NetApproval()), nil
	case "remove_policy":
		p, ok := e.content.PolicyByID(arg)
		if !ok {
			return "", ErrUnknownPolicy
		}
		if !e.RemovePolicy(p.ID) {
			return fmt.Sprintf("%s is not on your platform.", p.Name), nil
		}
		return fmt.Sprintf("%s removed (%+d approval).", p.Name, -p.NetApproval()), nil
	case "start_debate":
		if err := e.StartDebate(); err != nil {
			if errors.Is(err, ErrNotEnoughPolicies) {
				return "", fmt.Errorf("select %d more policies: %w", e.PoliciesNeeded(), err)
			}
			return "", err
		}
		return "The debate is live.", nil
	case "answer":
		i, err := choiceIndex(arg)
		if err != nil {
			return "", err
		}
		a, err := e.AnswerDebateQuestion(i)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%+d)", a.Response, a.Impact), nil
	case "next":
		err := e.NextDebateQuestion()
		if errors.Is(err, ErrLastQuestion) {
			return applyAction(e, rng, "start_election", "")
		}
		if err != nil {
			return "", err
		}
		return "Next question.", nil
	case "start_election":
		if err := e.StartElection(); err != nil {
			return "", err
		}
		return fmt.Sprintf("Election night. Debate score %+d.", e.state.DebateScore), nil
	case "run_election":
		out, err := e.RunElection(rng)
		if err != nil {
			return "", err
		}
		return electionNotice(out), nil
	case "start_governing":
		if err := e.StartGoverning(); err != nil {
			return "", err
		}
		return "You take the oath of office.", nil
	case "concede":
		if err := e.ConcedeElection(); err != nil {
			return "", err
		}
		return "You concede the race.", nil
	case "choose":
		i, err := choiceIndex(arg)
		if err != nil {
			return "", err
		}
		c, err := e.ChooseEventOption(i)
		if err != nil {
			return "", err
		}
		notice := fmt.Sprintf("%s (%+d approval)", c.Consequence, c.ApprovalChange)
		if e.state.Phase == PhaseGameOver {
			notice += " Your presidency is over."
		}
		return notice, nil
	case "continue":
		if err := e.ContinueEvent(); err != nil {
			if errors.Is(err, ErrHiringRequired) {
				pos, _ := e.HiringRequirement()
				return "", fmt.Errorf("appoint a new %s first: %w", pos.DisplayName(), err)
			}
			return "", err
		}
		if e.state.Phase == PhaseGameOver {
			return "Your term comes to a close.", nil
		}
		if pos, ok := e.HiringRequirement(); ok {
			return fmt.Sprintf("The %s post is vacant.", pos.DisplayName()), nil
		}
		return fmt.Sprintf("Day %d.", e.state.DaysInOffice), nil
	case "hire":
		cand, ok := e.content.CandidateByID(arg)
		if !ok {
			return "", ErrUnknownCandidate
		}
		if err := e.HireCabinetMember(cand.Member()); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is the new %s.", cand.Name, cand.Position.DisplayName()), nil
	case "fire":
		pos := CabinetPosition(arg)
		m, seated := e.state.Cabinet.Member(pos)
		if err := e.FireCabinetMember(pos); err != nil {
			return "", err
		}
		if !seated {
			return fmt.Sprintf("The %s post is already vacant.", pos.DisplayName()), nil
		}
		return fmt.Sprintf("%s has left the %s post.", m.Name, pos.DisplayName()), nil
	case "title":
		if err := e.GoToTitle(); err != nil {
			return "", err
		}
		return "Back at the title screen. Your game is still here.", nil
	case "reset":
		e.ResetGame()
		return "A new game.", nil
	}
	return "", ErrUnknownAction
}

// choiceIndex reads a 1-based option number.
func choiceIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errBadArgument
	}
	return n - 1, nil
}

func electionNotice(out ElectionOutcome) string {
	carried := 0
	for _, c := range out.Calls {
		if c.PlayerWins {
			carried++
		}
	}
	verdict := "Defeat."
	if out.Won {
		verdict = "Victory!"
	}
	return fmt.Sprintf("You carried %d of %d states, %d to %d electoral votes (%d to win). %s",
		carried, len(out.Calls), out.PlayerVotes, out.OpponentVotes, out.VotesToWin, verdict)
}

// noticeForError turns a rejected action into a player-facing sentence.
func noticeForError(err error) string {
	msg := err.Error()
	if msg == "" {
		return "That did not work."
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
