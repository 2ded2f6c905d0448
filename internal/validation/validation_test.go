package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"required,email"`
	Skip  string `json:"-" validate:"omitempty,min=2"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Name: "toolong", Email: "nope"})
	require.NotNil(t, err)
	require.Len(t, err.Fields, 2)

	assert.Equal(t, FieldError{Field: "name", Rule: "max", Message: "must be at most 5 characters"}, err.Fields[0])
	assert.Equal(t, "email", err.Fields[1].Field)
	assert.Equal(t, "email", err.Fields[1].Rule)
	assert.Contains(t, err.Error(), "name must be at most 5 characters")
}

func TestStructFallsBackToGoFieldName(t *testing.T) {
	err := Struct(sample{Name: "ok", Email: "a@x.com", Skip: "x"})
	require.NotNil(t, err)
	assert.Equal(t, "Skip", err.Fields[0].Field)
}

func TestStructValid(t *testing.T) {
	assert.Nil(t, Struct(sample{Name: "ok", Email: "a@x.com"}))
}

func TestVarUsesProvidedFieldName(t *testing.T) {
	err := Var("password", "short", "min=8")
	require.NotNil(t, err)
	assert.Equal(t, "password", err.Fields[0].Field)
	assert.Equal(t, "must be at least 8 characters", err.Fields[0].Message)

	assert.Nil(t, Var("password", "long-enough", "min=8"))
}

func TestMerge(t *testing.T) {
	assert.Nil(t, Merge(nil, nil))

	merged := Merge(NewError("a", "required", "is required"), nil, NewError("b", "email", "bad"))
	require.NotNil(t, merged)
	assert.Len(t, merged.Fields, 2)
}
