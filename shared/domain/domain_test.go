package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCount(t *testing.T) {
	cases := []struct {
		total    int64
		pageSize int
		want     int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 5, 5},
		{26, 5, 6},
		{5, 0, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PageCount(c.total, c.pageSize), "total=%d pageSize=%d", c.total, c.pageSize)
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 20))
	assert.Equal(t, 40, Offset(3, 20))
}

func TestVisibilityString(t *testing.T) {
	assert.Equal(t, "visible", VisibleOnly.String())
	assert.Equal(t, "pending", PendingOnly.String())
	assert.Equal(t, "all", AnyVisibility.String())
}
