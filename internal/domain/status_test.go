package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequirementFieldBuiltin(t *testing.T) {
	for _, key := range []string{FieldType, FieldProject, FieldBudget} {
		assert.True(t, RequirementField{Key: key}.Builtin(), key)
	}
	assert.False(t, RequirementField{Key: "floor", Kind: FieldNumber}.Builtin())
	assert.False(t, RequirementField{}.Builtin())
}
