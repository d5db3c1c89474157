package main

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var contentFS embed.FS

const entryEventID = "inauguration"

type PolicyCategory string

const (
	PolicyEconomy     PolicyCategory = "economy"
	PolicyHealthcare  PolicyCategory = "healthcare"
	PolicyEducation   PolicyCategory = "education"
	PolicyEnvironment PolicyCategory = "environment"
	PolicySecurity    PolicyCategory = "security"
)

var AllPolicyCategories = []PolicyCategory{PolicyEconomy, PolicyHealthcare, PolicyEducation, PolicyEnvironment, PolicySecurity}

type EventCategory string

const (
	EventCrisis      EventCategory = "crisis"
	EventOpportunity EventCategory = "opportunity"
	EventDiplomacy   EventCategory = "diplomacy"
	EventDomestic    EventCategory = "domestic"
	EventCabinet     EventCategory = "cabinet"
)

var AllEventCategories = []EventCategory{EventCrisis, EventOpportunity, EventDiplomacy, EventDomestic, EventCabinet}

type CabinetPosition string

const (
	ChiefOfStaff            CabinetPosition = "chief_of_staff"
	SecretaryOfState        CabinetPosition = "secretary_of_state"
	SecretaryOfDefense      CabinetPosition = "secretary_of_defense"
	AttorneyGeneral         CabinetPosition = "attorney_general"
	SecretaryOfTreasury     CabinetPosition = "secretary_of_treasury"
	NationalSecurityAdvisor CabinetPosition = "national_security_advisor"
	PressSecretary          CabinetPosition = "press_secretary"
	VicePresidentAdvisor    CabinetPosition = "vice_president_advisor"
)

var AllCabinetPositions = []CabinetPosition{
	ChiefOfStaff, SecretaryOfState, SecretaryOfDefense, AttorneyGeneral,
	SecretaryOfTreasury, NationalSecurityAdvisor, PressSecretary, VicePresidentAdvisor,
}

type Policy struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Category    PolicyCategory `yaml:"category" json:"category"`
	Description string         `yaml:"description" json:"description"`
	Support     int            `yaml:"support" json:"support"`
	Opposition  int            `yaml:"opposition" json:"opposition"`
}

// NetApproval is the approval swing of adopting the policy.
func (p Policy) NetApproval() int {
	return p.Support - p.Opposition
}

type DebateAnswer struct {
	Text     string `yaml:"text" json:"text"`
	Impact   int    `yaml:"impact" json:"impact"`
	Response string `yaml:"response" json:"response"`
}

type DebateQuestion struct {
	ID       string         `yaml:"id" json:"id"`
	Question string         `yaml:"question" json:"question"`
	Answers  []DebateAnswer `yaml:"answers" json:"answers"`
}

// EventChoice is one outgoing option of a GovernmentEvent. An empty
// NextEventID marks a terminal choice.
type EventChoice struct {
	Text                  string          `yaml:"text" json:"text"`
	Consequence           string          `yaml:"consequence" json:"consequence"`
	ApprovalChange        int             `yaml:"approvalChange" json:"approvalChange"`
	NextEventID           string          `yaml:"nextEventId,omitempty" json:"nextEventId,omitempty"`
	FireCabinetMember     CabinetPosition `yaml:"fireCabinetMember,omitempty" json:"fireCabinetMember,omitempty"`
	RequiresCabinetHiring CabinetPosition `yaml:"requiresCabinetHiring,omitempty" json:"requiresCabinetHiring,omitempty"`
}

type GovernmentEvent struct {
	ID                   string          `yaml:"id" json:"id"`
	Title                string          `yaml:"title" json:"title"`
	Description          string          `yaml:"description" json:"description"`
	Category             EventCategory   `yaml:"category" json:"category"`
	Choices              []EventChoice   `yaml:"choices" json:"choices"`
	TriggerCabinetHiring CabinetPosition `yaml:"triggerCabinetHiring,omitempty" json:"triggerCabinetHiring,omitempty"`
}

type CabinetMember struct {
	ID            string          `yaml:"id" json:"id"`
	Name          string          `yaml:"name" json:"name"`
	Position      CabinetPosition `yaml:"position" json:"position"`
	Loyalty       int             `yaml:"loyalty" json:"loyalty"`
	Competence    int             `yaml:"competence" json:"competence"`
	Background    string          `yaml:"background" json:"background"`
	ApprovalBonus int             `yaml:"approvalBonus" json:"approvalBonus"`
}

type CabinetCandidate struct {
	CabinetMember `yaml:",inline"`
	Controversy   int `yaml:"controversy" json:"controversy"`
}

// Member drops the candidate-only fields.
func (c CabinetCandidate) Member() CabinetMember {
	return c.CabinetMember
}

func (c CabinetCandidate) ControversyRisk() string {
	switch {
	case c.Controversy <= 15:
		return "Low"
	case c.Controversy <= 25:
		return "Medium"
	default:
		return "High"
	}
}

type ElectoralUnit struct {
	Name  string `yaml:"name" json:"name"`
	Votes int    `yaml:"votes" json:"votes"`
}

type DisplayMeta struct {
	Label string `json:"label"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (c PolicyCategory) Valid() bool {
	_, ok := c.Display()
	return ok
}

func (c PolicyCategory) Display() (DisplayMeta, bool) {
	switch c {
	case PolicyEconomy:
		return DisplayMeta{Label: "Economy", Color: "gold", Icon: "💰"}, true
	case PolicyHealthcare:
		return DisplayMeta{Label: "Healthcare", Color: "primary", Icon: "🏥"}, true
	case PolicyEducation:
		return DisplayMeta{Label: "Education", Color: "secondary", Icon: "📚"}, true
	case PolicyEnvironment:
		return DisplayMeta{Label: "Environment", Color: "victory", Icon: "🌿"}, true
	case PolicySecurity:
		return DisplayMeta{Label: "Security", Color: "accent", Icon: "🛡️"}, true
	}
	return DisplayMeta{}, false
}

func (c EventCategory) Valid() bool {
	switch c {
	case EventCrisis, EventOpportunity, EventDiplomacy, EventDomestic, EventCabinet:
		return true
	}
	return false
}

// Badge returns the event card badge. Categories without a badge of their
// own (cabinet) are shown as domestic.
func (c EventCategory) Badge() DisplayMeta {
	switch c {
	case EventCrisis:
		return DisplayMeta{Label: "CRISIS", Color: "destructive", Icon: "⚠️"}
	case EventOpportunity:
		return DisplayMeta{Label: "OPPORTUNITY", Color: "victory", Icon: "✨"}
	case EventDiplomacy:
		return DisplayMeta{Label: "DIPLOMACY", Color: "secondary", Icon: "🌍"}
	default:
		return DisplayMeta{Label: "DOMESTIC", Color: "gold", Icon: "🏛️"}
	}
}

func (p CabinetPosition) Valid() bool {
	_, ok := p.Display()
	return ok
}

func (p CabinetPosition) Display() (DisplayMeta, bool) {
	switch p {
	case ChiefOfStaff:
		return DisplayMeta{Label: "Chief of Staff", Icon: "📋"}, true
	case SecretaryOfState:
		return DisplayMeta{Label: "Secretary of State", Icon: "🌍"}, true
	case SecretaryOfDefense:
		return DisplayMeta{Label: "Secretary of Defense", Icon: "🛡️"}, true
	case AttorneyGeneral:
		return DisplayMeta{Label: "Attorney General", Icon: "⚖️"}, true
	case SecretaryOfTreasury:
		return DisplayMeta{Label: "Secretary of the Treasury", Icon: "💰"}, true
	case NationalSecurityAdvisor:
		return DisplayMeta{Label: "National Security Advisor", Icon: "🔐"}, true
	case PressSecretary:
		return DisplayMeta{Label: "Press Secretary", Icon: "📢"}, true
	case VicePresidentAdvisor:
		return DisplayMeta{Label: "Vice President Advisor", Icon: "🤝"}, true
	}
	return DisplayMeta{}, false
}

// DisplayName falls back to the raw key so callers always have something to print.
func (p CabinetPosition) DisplayName() string {
	if meta, ok := p.Display(); ok {
		return meta.Label
	}
	return string(p)
}

// EventGraph indexes government events by id. Edges are the distinct
// nextEventId targets of a node's choices.
type EventGraph struct {
	Entry string
	order []string
	nodes map[string]GovernmentEvent
}

func newEventGraph(entry string, events []GovernmentEvent) (*EventGraph, error) {
	g := &EventGraph{Entry: entry, nodes: make(map[string]GovernmentEvent, len(events))}
	for _, ev := range events {
		if ev.ID == "" {
			return nil, errors.New("event with empty id")
		}
		if _, dup := g.nodes[ev.ID]; dup {
			return nil, fmt.Errorf("duplicate event id %q", ev.ID)
		}
		g.nodes[ev.ID] = ev
		g.order = append(g.order, ev.ID)
	}
	return g, nil
}

func (g *EventGraph) Node(id string) (GovernmentEvent, bool) {
	if g == nil || id == "" {
		return GovernmentEvent{}, false
	}
	ev, ok := g.nodes[id]
	return ev, ok
}

func (g *EventGraph) Has(id string) bool {
	_, ok := g.Node(id)
	return ok
}

func (g *EventGraph) Edges(id string) []string {
	ev, ok := g.Node(id)
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, c := range ev.Choices {
		if c.NextEventID == "" || seen[c.NextEventID] {
			continue
		}
		seen[c.NextEventID] = true
		out = append(out, c.NextEventID)
	}
	return out
}

// Events returns the nodes in content order.
func (g *EventGraph) Events() []GovernmentEvent {
	out := make([]GovernmentEvent, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Validate checks that every edge resolves, the entry exists, every node is
// reachable from the entry and no path revisits a node.
func (g *EventGraph) Validate() error {
	var errs []error
	if !g.Has(g.Entry) {
		errs = append(errs, fmt.Errorf("entry event %q missing", g.Entry))
	}
	for _, id := range g.order {
		ev := g.nodes[id]
		if !ev.Category.Valid() {
			errs = append(errs, fmt.Errorf("event %q: unknown category %q", id, ev.Category))
		}
		if len(ev.Choices) == 0 {
			errs = append(errs, fmt.Errorf("event %q has no choices", id))
		}
		for i, c := range ev.Choices {
			if c.NextEventID != "" && !g.Has(c.NextEventID) {
				errs = append(errs, fmt.Errorf("event %q choice %d: next event %q not found", id, i, c.NextEventID))
			}
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.nodes))
	var walk func(id string) error
	walk = func(id string) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("event graph cycle through %q", id)
		case done:
			return nil
		}
		state[id] = visiting
		for _, next := range g.Edges(id) {
			if err := walk(next); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}
	if err := walk(g.Entry); err != nil {
		return err
	}
	for _, id := range g.order {
		if state[id] != done {
			errs = append(errs, fmt.Errorf("event %q unreachable from %q", id, g.Entry))
		}
	}
	return errors.Join(errs...)
}

// Content holds the read-only reference tables the engine plays against.
type Content struct {
	Policies   []Policy
	Debates    []DebateQuestion
	Events     *EventGraph
	Incumbents []CabinetMember
	Candidates []CabinetCandidate
	Units      []ElectoralUnit

	policyByID  map[string]Policy
	byPosition  map[CabinetPosition][]CabinetCandidate
	candidateID map[string]CabinetCandidate
}

type policyFile struct {
	Policies []Policy `yaml:"policies"`
}

type debateFile struct {
	Questions []DebateQuestion `yaml:"questions"`
}

type eventFile struct {
	Entry  string            `yaml:"entry"`
	Events []GovernmentEvent `yaml:"events"`
}

type cabinetFile struct {
	Incumbents []CabinetMember    `yaml:"incumbents"`
	Candidates []CabinetCandidate `yaml:"candidates"`
}

type electorateFile struct {
	Units []ElectoralUnit `yaml:"units"`
}

func loadEmbeddedContent() (*Content, error) {
	sub, err := fs.Sub(contentFS, "content")
	if err != nil {
		return nil, fmt.Errorf("open embedded content: %w", err)
	}
	return loadContent(sub)
}

func loadContent(fsys fs.FS) (*Content, error) {
	var (
		pf policyFile
		df debateFile
		ef eventFile
		cf cabinetFile
		uf electorateFile
	)
	for name, target := range map[string]any{
		"policies.yaml":   &pf,
		"debates.yaml":    &df,
		"events.yaml":     &ef,
		"cabinet.yaml":    &cf,
		"electorate.yaml": &uf,
	} {
		if err := decodeYAMLFile(fsys, name, target); err != nil {
			return nil, err
		}
	}

	if ef.Entry == "" {
		ef.Entry = entryEventID
	}
	graph, err := newEventGraph(ef.Entry, ef.Events)
	if err != nil {
		return nil, fmt.Errorf("events.yaml: %w", err)
	}
	c := &Content{
		Policies:    pf.Policies,
		Debates:     df.Questions,
		Events:      graph,
		Incumbents:  cf.Incumbents,
		Candidates:  cf.Candidates,
		Units:       uf.Units,
		policyByID:  map[string]Policy{},
		byPosition:  map[CabinetPosition][]CabinetCandidate{},
		candidateID: map[string]CabinetCandidate{},
	}
	for _, p := range c.Policies {
		c.policyByID[p.ID] = p
	}
	for _, cand := range c.Candidates {
		c.byPosition[cand.Position] = append(c.byPosition[cand.Position], cand)
		c.candidateID[cand.ID] = cand
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("content integrity: %w", err)
	}
	return c, nil
}

func decodeYAMLFile(fsys fs.FS, name string, target any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Validate runs the content integrity checks. It is called once at load.
func (c *Content) Validate() error {
	var errs []error

	seen := map[string]bool{}
	for _, p := range c.Policies {
		if p.ID == "" || seen[p.ID] {
			errs = append(errs, fmt.Errorf("policy id %q empty or duplicated", p.ID))
		}
		seen[p.ID] = true
		if !p.Category.Valid() {
			errs = append(errs, fmt.Errorf("policy %q: unknown category %q", p.ID, p.Category))
		}
		if p.Support <= 0 || p.Opposition <= 0 {
			errs = append(errs, fmt.Errorf("policy %q: support and opposition must be positive", p.ID))
		}
	}

	seen = map[string]bool{}
	for _, q := range c.Debates {
		if q.ID == "" || seen[q.ID] {
			errs = append(errs, fmt.Errorf("debate question id %q empty or duplicated", q.ID))
		}
		seen[q.ID] = true
		if len(q.Answers) == 0 {
			errs = append(errs, fmt.Errorf("debate question %q has no answers", q.ID))
		}
	}
	if len(c.Debates) == 0 {
		errs = append(errs, errors.New("no debate questions"))
	}

	if err := c.Events.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, ev := range c.Events.Events() {
		positions := []CabinetPosition{ev.TriggerCabinetHiring}
		for _, ch := range ev.Choices {
			positions = append(positions, ch.FireCabinetMember, ch.RequiresCabinetHiring)
		}
		for _, pos := range positions {
			if pos == "" {
				continue
			}
			if !pos.Valid() {
				errs = append(errs, fmt.Errorf("event %q: unknown cabinet position %q", ev.ID, pos))
				continue
			}
			if len(c.byPosition[pos]) == 0 {
				errs = append(errs, fmt.Errorf("event %q: no candidates for %s", ev.ID, pos))
			}
		}
	}

	filled := map[CabinetPosition]bool{}
	for _, m := range c.Incumbents {
		if !m.Position.Valid() {
			errs = append(errs, fmt.Errorf("incumbent %q: unknown position %q", m.ID, m.Position))
		}
		if filled[m.Position] {
			errs = append(errs, fmt.Errorf("position %s has two incumbents", m.Position))
		}
		filled[m.Position] = true
		errs = append(errs, checkStat(m.ID, "loyalty", m.Loyalty), checkStat(m.ID, "competence", m.Competence))
	}
	seen = map[string]bool{}
	for _, cand := range c.Candidates {
		if cand.ID == "" || seen[cand.ID] {
			errs = append(errs, fmt.Errorf("candidate id %q empty or duplicated", cand.ID))
		}
		seen[cand.ID] = true
		if !cand.Position.Valid() {
			errs = append(errs, fmt.Errorf("candidate %q: unknown position %q", cand.ID, cand.Position))
		}
		errs = append(errs,
			checkStat(cand.ID, "loyalty", cand.Loyalty),
			checkStat(cand.ID, "competence", cand.Competence),
			checkStat(cand.ID, "controversy", cand.Controversy),
		)
	}

	if len(c.Units) == 0 {
		errs = append(errs, errors.New("no electoral units"))
	}
	for _, u := range c.Units {
		if u.Votes <= 0 {
			errs = append(errs, fmt.Errorf("electoral unit %q: votes must be positive", u.Name))
		}
	}
	return errors.Join(errs...)
}

func checkStat(id, field string, v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%s: %s %d outside 0-100", id, field, v)
	}
	return nil
}

func (c *Content) PolicyByID(id string) (Policy, bool) {
	p, ok := c.policyByID[id]
	return p, ok
}

func (c *Content) PoliciesByCategory(cat PolicyCategory) []Policy {
	var out []Policy
	for _, p := range c.Policies {
		if p.Category == cat {
			out = append(out, p)
		}
	}
	return out
}

func (c *Content) EventByID(id string) (GovernmentEvent, bool) {
	return c.Events.Node(id)
}

func (c *Content) CandidatesForPosition(pos CabinetPosition) []CabinetCandidate {
	return append([]CabinetCandidate(nil), c.byPosition[pos]...)
}

func (c *Content) CandidateByID(id string) (CabinetCandidate, bool) {
	cand, ok := c.candidateID[id]
	return cand, ok
}

func (c *Content) DebateQuestionAt(i int) (DebateQuestion, bool) {
	if i < 0 || i >= len(c.Debates) {
		return DebateQuestion{}, false
	}
	return c.Debates[i], true
}
