package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `validate:"required"`
	Count int    `validate:"min=1,max=3"`
}

func TestStruct_Valid(t *testing.T) {
	require.NoError(t, Struct(sample{Name: "a", Count: 2}))
}

func TestStruct_FlattensFieldErrors(t *testing.T) {
	err := Struct(sample{Count: 9})
	require.Error(t, err)
	require.Contains(t, err.Error(), "field 'Name' failed 'required'")
	require.Contains(t, err.Error(), "field 'Count' failed 'max'")
}

func TestStruct_NonStruct(t *testing.T) {
	require.Error(t, Struct("not a struct"))
}
