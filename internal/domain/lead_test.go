package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func leadWithTags(ids ...string) Lead {
	l := Lead{ID: "l-1"}
	for _, id := range ids {
		l.Tags = append(l.Tags, Tag{ID: id, Label: id})
	}
	return l
}

func TestLeadHasTag(t *testing.T) {
	assert.True(t, leadWithTags("hot", "vip").HasTag("vip"))
	assert.False(t, leadWithTags("hot").HasTag("vip"))
	assert.False(t, leadWithTags().HasTag("hot"))

	byID := map[string]Lead{"l-1": leadWithTags("investor")}
	assert.True(t, byID["l-1"].HasTag("investor"))
}
