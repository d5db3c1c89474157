package main

import (
	"math"
	"sort"
	"strings"
)

// Cabinet is the roster keyed by position. A missing key is a vacant seat.
type Cabinet map[CabinetPosition]CabinetMember

type CabinetSort string

const (
	SortByPosition   CabinetSort = "position"
	SortByLoyalty    CabinetSort = "loyalty"
	SortByCompetence CabinetSort = "competence"
)

type CabinetSummary struct {
	Filled             int               `json:"filled"`
	Vacancies          []CabinetPosition `json:"vacancies"`
	AvgLoyalty         int               `json:"avgLoyalty"`
	AvgCompetence      int               `json:"avgCompetence"`
	TotalApprovalBonus int               `json:"totalApprovalBonus"`
}

func newCabinet(incumbents []CabinetMember) Cabinet {
	c := make(Cabinet, len(AllCabinetPositions))
	for _, m := range incumbents {
		c[m.Position] = m
	}
	return c
}

func (c Cabinet) Member(pos CabinetPosition) (CabinetMember, bool) {
	m, ok := c[pos]
	return m, ok
}

func (c Cabinet) Filled(pos CabinetPosition) bool {
	_, ok := c[pos]
	return ok
}

func (c Cabinet) Vacancies() []CabinetPosition {
	var out []CabinetPosition
	for _, pos := range AllCabinetPositions {
		if !c.Filled(pos) {
			out = append(out, pos)
		}
	}
	return out
}

// Members lists the seated members in position order.
func (c Cabinet) Members() []CabinetMember {
	out := make([]CabinetMember, 0, len(c))
	for _, pos := range AllCabinetPositions {
		if m, ok := c[pos]; ok {
			out = append(out, m)
		}
	}
	return out
}

func (c Cabinet) Sorted(by CabinetSort) []CabinetMember {
	members := c.Members()
	sort.SliceStable(members, func(i, j int) bool {
		switch by {
		case SortByLoyalty:
			return members[i].Loyalty > members[j].Loyalty
		case SortByCompetence:
			return members[i].Competence > members[j].Competence
		default:
			return strings.Compare(members[i].Position.DisplayName(), members[j].Position.DisplayName()) < 0
		}
	})
	return members
}

func (c Cabinet) Summary() CabinetSummary {
	s := CabinetSummary{Vacancies: c.Vacancies()}
	members := c.Members()
	s.Filled = len(members)
	if s.Filled == 0 {
		return s
	}
	var loyalty, competence int
	for _, m := range members {
		loyalty += m.Loyalty
		competence += m.Competence
		s.TotalApprovalBonus += m.ApprovalBonus
	}
	s.AvgLoyalty = int(math.Round(float64(loyalty) / float64(s.Filled)))
	s.AvgCompetence = int(math.Round(float64(competence) / float64(s.Filled)))
	return s
}

func (c Cabinet) clone() Cabinet {
	out := make(Cabinet, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}
