package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCabinet(t *testing.T) {
	c := newCabinet(testContent(t).Incumbents)

	assert.Len(t, c.Members(), 7)
	assert.Equal(t, []CabinetPosition{VicePresidentAdvisor}, c.Vacancies())
	assert.False(t, c.Filled(VicePresidentAdvisor))

	m, ok := c.Member(SecretaryOfTreasury)
	require.True(t, ok)
	assert.Equal(t, 95, m.Competence)
}

func TestCabinetSummary(t *testing.T) {
	c := newCabinet(testContent(t).Incumbents)
	s := c.Summary()

	assert.Equal(t, 7, s.Filled)
	assert.Equal(t, 70, s.AvgLoyalty)
	assert.Equal(t, 84, s.AvgCompetence)
	assert.Equal(t, 17, s.TotalApprovalBonus)

	empty := Cabinet{}.Summary()
	assert.Zero(t, empty.Filled)
	assert.Zero(t, empty.AvgLoyalty)
	assert.Len(t, empty.Vacancies, len(AllCabinetPositions))
}

func TestCabinetSorted(t *testing.T) {
	c := newCabinet(testContent(t).Incumbents)

	byLoyalty := c.Sorted(SortByLoyalty)
	require.Len(t, byLoyalty, 7)
	assert.Equal(t, PressSecretary, byLoyalty[0].Position)
	assert.Equal(t, SecretaryOfTreasury, byLoyalty[6].Position)

	byCompetence := c.Sorted(SortByCompetence)
	assert.Equal(t, SecretaryOfTreasury, byCompetence[0].Position)

	byPosition := c.Sorted(SortByPosition)
	assert.Equal(t, AttorneyGeneral, byPosition[0].Position)
	assert.Equal(t, SecretaryOfTreasury, byPosition[6].Position)
}
