package services

import "github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"

// Allowed transitions per workflow field.
var AcceptanceTransitions = map[models.AcceptanceStatus]map[models.AcceptanceStatus]bool{
	models.AcceptancePending: {
		models.AcceptanceAccepted:           true,
		models.AcceptanceRejected:           true,
		models.AcceptanceExtensionRequested: true,
	},
	models.AcceptanceAccepted:           {models.AcceptanceExtensionRequested: true},
	models.AcceptanceExtensionRequested: {models.AcceptanceAccepted: true}, // approve and reject both land here
	models.AcceptanceRejected:           {},
}

// EditRequestTransitions never returns to none: a resolved request moves
// straight back to pending on the next request.
var EditRequestTransitions = map[models.EditRequestStatus]map[models.EditRequestStatus]bool{
	models.EditRequestNone:     {models.EditRequestPending: true},
	models.EditRequestPending:  {models.EditRequestApproved: true, models.EditRequestRejected: true},
	models.EditRequestApproved: {models.EditRequestPending: true},
	models.EditRequestRejected: {models.EditRequestPending: true},
}

// StatusTransitions is forward-only; completed is terminal.
var StatusTransitions = map[models.TaskStatus]map[models.TaskStatus]bool{
	models.StatusPending:    {models.StatusInProgress: true},
	models.StatusInProgress: {models.StatusCompleted: true},
	models.StatusCompleted:  {},
}

func canTransition[S comparable](current, to S, table map[S]map[S]bool) bool {
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[to]
}
