package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/domain"
)

func TestForLeadAddsMissingTagsOnly(t *testing.T) {
	lead := baseLead()
	u := ForLead(lead, domain.BulkUpdate{
		Tags:         []domain.Tag{{ID: "t1", Label: "Hot"}, {ID: "t2", Label: "VIP"}},
		TagOperation: domain.TagAdd,
	})

	require.NotNil(t, u.Tags)
	assert.Equal(t, []domain.Tag{{ID: "t1", Label: "Hot"}, {ID: "t2", Label: "VIP"}}, *u.Tags)
	assert.Len(t, lead.Tags, 1, "input untouched")
}

func TestForLeadRemovesTags(t *testing.T) {
	lead := baseLead()
	lead.Tags = append(lead.Tags, domain.Tag{ID: "t2", Label: "VIP"})

	u := ForLead(lead, domain.BulkUpdate{
		Tags:         []domain.Tag{{ID: "t1"}},
		TagOperation: domain.TagRemove,
	})

	require.NotNil(t, u.Tags)
	assert.Equal(t, []domain.Tag{{ID: "t2", Label: "VIP"}}, *u.Tags)
	assert.Len(t, lead.Tags, 2)
}

func TestApplyBulkTouchesOnlySelectedLeads(t *testing.T) {
	a := baseLead()
	b := baseLead()
	b.ID = "lead2"
	status := &domain.Status{ID: "s4", Label: "Lost"}

	out, n := ApplyBulk([]domain.Lead{a, b}, domain.BulkUpdate{
		LeadIDs: []string{"lead2", "absent"},
		Status:  status,
		Comment: "batch close out",
	}, "Dana", now)

	assert.Equal(t, 1, n)
	assert.Equal(t, a, out[0])
	assert.Equal(t, "s4", out[1].Status.ID)
	assert.Equal(t, 1, out[1].VisibleCommentCount)
}
