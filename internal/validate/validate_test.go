package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestPagination(t *testing.T) {
	assert.NoError(t, Pagination(0, nil))
	assert.NoError(t, Pagination(5, intp(10)))

	err := Pagination(-1, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_index")

	err = Pagination(0, intp(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_results")

	err = Pagination(0, intp(-3))
	require.Error(t, err)
}

func TestNonEmptyPattern(t *testing.T) {
	assert.NoError(t, NonEmptyPattern("*.go"))

	err := NonEmptyPattern("   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern")

	err = NonEmptyPattern("")
	require.Error(t, err)
}

type testParams struct {
	Path string `validate:"required"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(testParams{Path: "/a"}))

	err := Struct(testParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
