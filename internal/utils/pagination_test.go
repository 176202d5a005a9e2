package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paramsFor(query string, prefix string) PaginationParams {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return GetPrefixedPaginationParams(c, prefix)
}

func TestGetPrefixedPaginationParams(t *testing.T) {
	assert.Equal(t, PaginationParams{Page: 1, Limit: 20, Offset: 0}, paramsFor("", ""))
	assert.Equal(t, PaginationParams{Page: 3, Limit: 10, Offset: 20}, paramsFor("page=3&limit=10", ""))
	assert.Equal(t, PaginationParams{Page: 1, Limit: 20, Offset: 0}, paramsFor("page=-2&limit=500", ""))
	assert.Equal(t, PaginationParams{Page: 2, Limit: 5, Offset: 5}, paramsFor("users_page=2&users_limit=5&page=9", "users_"))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	p := PaginationParams{Page: 2, Limit: 2, Offset: 2}

	assert.Equal(t, []int{3, 4}, Paginate(items, p))
	assert.Equal(t, []int{5}, Paginate(items, PaginationParams{Page: 3, Limit: 2, Offset: 4}))
	assert.Empty(t, Paginate(items, PaginationParams{Page: 4, Limit: 2, Offset: 6}))
	assert.Equal(t, 3, p.TotalPages(len(items)))
	assert.Zero(t, p.TotalPages(0))
}
