package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/substitution-api/internal/models"
)

func TestFilterSubstitutesByGradeExactMatch(t *testing.T) {
	candidates := []models.Teacher{
		{Name: "Doe", GradeLevel: 10},
		{Name: "Roe", GradeLevel: 9},
	}

	got, warnings := FilterSubstitutesByGrade("10A", candidates)
	require.Len(t, got, 1)
	assert.Equal(t, "Doe", got[0].Name)
	assert.Empty(t, warnings)
}

func TestFilterSubstitutesByGradeHigherFallback(t *testing.T) {
	candidates := []models.Teacher{
		{Name: "Doe", GradeLevel: 10},
		{Name: "Roe", GradeLevel: 9},
	}

	got, warnings := FilterSubstitutesByGrade("8B", candidates)
	require.Len(t, got, 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "8B")
}

func TestFilterSubstitutesByGradeNoCandidates(t *testing.T) {
	candidates := []models.Teacher{
		{Name: "Roe", GradeLevel: 6},
	}

	got, warnings := FilterSubstitutesByGrade("12A", candidates)
	assert.Empty(t, got)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "12A")
}

func TestFilterSubstitutesByGradeUnparsableClass(t *testing.T) {
	candidates := []models.Teacher{
		{Name: "Doe", GradeLevel: 10},
	}

	got, warnings := FilterSubstitutesByGrade("Lab", candidates)
	assert.Equal(t, candidates, got)
	assert.Empty(t, warnings)
}

func TestClassGrade(t *testing.T) {
	assert.Equal(t, 10, classGrade("10A"))
	assert.Equal(t, 7, classGrade(" 7C "))
	assert.Equal(t, 0, classGrade("Lab"))
	assert.Equal(t, 0, classGrade(""))
}
