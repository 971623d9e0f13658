package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserHelpers(t *testing.T) {
	u := &User{CompletedPosts: []string{"p1", "p2"}, FollowedCategories: []string{"HTML"}}
	assert.True(t, u.HasCompleted("p2"))
	assert.False(t, u.HasCompleted("p3"))
	assert.True(t, u.Follows("HTML"))
	assert.False(t, u.Follows("CSS"))

	var empty User
	assert.False(t, empty.HasCompleted("p1"))
	assert.False(t, empty.Follows("HTML"))
}
