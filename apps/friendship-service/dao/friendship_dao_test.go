package dao

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"social-network/apps/friendship-service/model"
)

func TestCanonicalPair(t *testing.T) {
	lo, hi := canonicalPair(5, 3)
	assert.Equal(t, int64(3), lo)
	assert.Equal(t, int64(5), hi)

	lo, hi = canonicalPair(3, 5)
	assert.Equal(t, int64(3), lo)
	assert.Equal(t, int64(5), hi)
}

func TestCounterpartAssociation(t *testing.T) {
	assert.Equal(t, "FromUser", counterpartAssociation("from_user__name"))
	assert.Equal(t, "ToUser", counterpartAssociation("created_at"))
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "friend_requests.created_at ASC", orderClause("created_at", false))
	assert.Equal(t, "friend_requests.created_at DESC", orderClause("created_at", true))

	// 申请人姓名排序走users表的关联子查询
	clause := orderClause("from_user__name", false)
	assert.Contains(t, clause, "u.first_name")
	assert.Contains(t, clause, "u.last_name")
	assert.Contains(t, clause, "ASC")
}

func TestSortWhitelist(t *testing.T) {
	for _, sort := range model.ValidSortFields {
		assert.True(t, model.IsValidSort(sort), sort)
	}
	assert.False(t, model.IsValidSort("email"))
	assert.False(t, model.IsValidSort("-id"))
	assert.False(t, model.IsValidSort(""))
}
