package pagination

import (
	"time"

	"leadflow/internal/domain"
	"leadflow/internal/reconcile"
)

// LeadList is a coordinator over lead records.
type LeadList = Coordinator[domain.Lead]

// ApplyLeadUpdate reconciles a confirmed update into the list copy of the
// lead. A lead that has left the list is skipped and reported as false.
func ApplyLeadUpdate(list *LeadList, id string, u domain.Update, actor string, now time.Time) bool {
	return list.Replace(
		func(l domain.Lead) bool { return l.ID == id },
		func(l domain.Lead) domain.Lead { return reconcile.Apply(l, u, actor, now) },
	)
}

// ApplyBulkUpdate reconciles a confirmed bulk change into every listed lead
// still present and returns how many were updated.
func ApplyBulkUpdate(list *LeadList, b domain.BulkUpdate, actor string, now time.Time) int {
	n := 0
	for _, id := range b.LeadIDs {
		if list.Replace(
			func(l domain.Lead) bool { return l.ID == id },
			func(l domain.Lead) domain.Lead { return reconcile.Apply(l, reconcile.ForLead(l, b), actor, now) },
		) {
			n++
		}
	}
	return n
}
