package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 500, OrderDir: "sideways"}.Normalize()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 200, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)
	assert.NotNil(t, f.Filters)
	assert.Equal(t, 0, f.Offset())

	f.Page = 3
	assert.Equal(t, 400, f.Offset())
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]string{"a", "b"}, 41, 2, 20)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(41), p.Total)

	empty := NewPaginated[string](nil, 0, 1, 0)
	assert.Equal(t, 0, empty.TotalPages)
	assert.NotNil(t, empty.Items)
}
