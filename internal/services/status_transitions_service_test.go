package services

import (
	"testing"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
)

func TestAcceptanceTransitions(t *testing.T) {
	cases := []struct {
		from, to models.AcceptanceStatus
		ok       bool
	}{
		{models.AcceptancePending, models.AcceptanceAccepted, true},
		{models.AcceptancePending, models.AcceptanceRejected, true},
		{models.AcceptancePending, models.AcceptanceExtensionRequested, true},
		{models.AcceptanceAccepted, models.AcceptanceExtensionRequested, true},
		{models.AcceptanceAccepted, models.AcceptanceRejected, false},
		{models.AcceptanceExtensionRequested, models.AcceptanceAccepted, true},
		{models.AcceptanceExtensionRequested, models.AcceptanceRejected, false},
		{models.AcceptanceRejected, models.AcceptanceAccepted, false},
		{models.AcceptanceRejected, models.AcceptanceExtensionRequested, false},
		{"unknown", models.AcceptanceAccepted, false},
	}
	for _, c := range cases {
		if got := canTransition(c.from, c.to, AcceptanceTransitions); got != c.ok {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestEditRequestTransitions(t *testing.T) {
	if canTransition(models.EditRequestPending, models.EditRequestPending, EditRequestTransitions) {
		t.Error("pending -> pending must be refused")
	}
	for _, from := range []models.EditRequestStatus{models.EditRequestNone, models.EditRequestApproved, models.EditRequestRejected} {
		if !canTransition(from, models.EditRequestPending, EditRequestTransitions) {
			t.Errorf("%s -> pending must be allowed", from)
		}
	}
	for _, to := range []models.EditRequestStatus{models.EditRequestApproved, models.EditRequestRejected, models.EditRequestNone} {
		if canTransition(models.EditRequestNone, to, EditRequestTransitions) {
			t.Errorf("none -> %s must be refused", to)
		}
	}
}

func TestStatusTransitionsAreForwardOnly(t *testing.T) {
	order := []models.TaskStatus{models.StatusPending, models.StatusInProgress, models.StatusCompleted}
	for i, from := range order {
		for j, to := range order {
			want := j == i+1
			if got := canTransition(from, to, StatusTransitions); got != want {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, want)
			}
		}
	}
}
