package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEscalation() *Escalation {
	return &Escalation{
		ID:        "esc-1",
		CourseID:  "cs101",
		StudentID: "s-42",
		Query:     "I need an extension",
		Category:  CategoryExtensionRequest,
		Status:    EscalationStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestValidateEscalation(t *testing.T) {
	assert.NoError(t, ValidateEscalation(validEscalation()))
}

func TestValidateEscalation_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Escalation)
	}{
		{"nil", nil},
		{"missing id", func(e *Escalation) { e.ID = "" }},
		{"missing course", func(e *Escalation) { e.CourseID = "" }},
		{"missing student", func(e *Escalation) { e.StudentID = "" }},
		{"missing query", func(e *Escalation) { e.Query = "" }},
		{"bad category", func(e *Escalation) { e.Category = "banana" }},
		{"bad status", func(e *Escalation) { e.Status = "archived" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.mutate == nil {
				assert.Error(t, ValidateEscalation(nil))
				return
			}
			e := validEscalation()
			tt.mutate(e)
			assert.Error(t, ValidateEscalation(e))
		})
	}
}

func TestValidateEscalation_ResolvedAtMatchesStatus(t *testing.T) {
	now := time.Now().UTC()

	t.Run("resolved requires timestamp", func(t *testing.T) {
		e := validEscalation()
		e.Status = EscalationStatusResolved
		assert.Error(t, ValidateEscalation(e))

		e.ResolvedAt = &now
		assert.NoError(t, ValidateEscalation(e))
	})

	t.Run("pending forbids timestamp", func(t *testing.T) {
		e := validEscalation()
		e.ResolvedAt = &now
		assert.Error(t, ValidateEscalation(e))
	})
}

func TestIsValidEscalationCategory(t *testing.T) {
	for _, c := range []EscalationCategory{
		CategoryExtensionRequest, CategoryGradeDispute, CategoryPersonalIssue,
		CategoryTechnicalProblem, CategoryConceptQuestion, CategoryOther,
	} {
		assert.True(t, IsValidEscalationCategory(c), string(c))
	}
	assert.False(t, IsValidEscalationCategory(""))
	assert.False(t, IsValidEscalationCategory("urgent"))
}

func TestParseRoute(t *testing.T) {
	tests := []struct {
		label  string
		want   Route
		wantOK bool
	}{
		{"POLICY", RoutePolicy, true},
		{"concept", RouteConcept, true},
		{" escalate ", RouteEscalate, true},
		{"", RouteEscalate, false},
		{"POLICY CONCEPT", RouteEscalate, false},
		{"unknown", RouteEscalate, false},
	}

	for _, tt := range tests {
		route, ok := ParseRoute(tt.label)
		require.Equal(t, tt.wantOK, ok, tt.label)
		assert.Equal(t, tt.want, route, tt.label)
	}
}
