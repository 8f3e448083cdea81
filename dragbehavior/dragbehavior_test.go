package dragbehavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmbrian/graph-ical-sub001/vocabulary"
)

func userToGroup() Behavior {
	return Behavior{
		SourceType: vocabulary.User,
		TargetType: vocabulary.Group,
		Relation:   vocabulary.MemberOf,
		AddText:    "Add to group",
		RemoveText: "Remove from group",
	}
}

func TestBehaviorValidate(t *testing.T) {
	assert.NoError(t, userToGroup().Validate())

	incomplete := userToGroup()
	incomplete.Relation = ""
	assert.Error(t, incomplete.Validate())

	// Context-menu texts are optional.
	bare := Behavior{SourceType: vocabulary.User, TargetType: vocabulary.Group, Relation: vocabulary.MemberOf}
	assert.NoError(t, bare.Validate())
}

func TestListAddAndMatch(t *testing.T) {
	l := NewList()
	require.NoError(t, l.Add(userToGroup()))
	require.NoError(t, l.Add(Behavior{
		SourceType: vocabulary.Display,
		TargetType: vocabulary.DisplayGroup,
		Relation:   vocabulary.IsIn,
	}))

	matches := l.Match(vocabulary.User, vocabulary.Group)
	require.Len(t, matches, 1)
	assert.Equal(t, vocabulary.MemberOf, string(matches[0].Relation))

	assert.Empty(t, l.Match(vocabulary.Group, vocabulary.User))
}

func TestListDoesNotDeduplicate(t *testing.T) {
	l := NewList()
	require.NoError(t, l.Add(userToGroup()))
	require.NoError(t, l.Add(userToGroup()))

	assert.Len(t, l.All(), 2)
	assert.Len(t, l.Match(vocabulary.User, vocabulary.Group), 2,
		"duplicate rules yield duplicate matches")
}

func TestListRemove(t *testing.T) {
	l := NewList()
	require.NoError(t, l.Add(userToGroup()))
	require.NoError(t, l.Add(userToGroup()))

	assert.Equal(t, 2, l.Remove(userToGroup()), "remove deletes every equal rule")
	assert.Empty(t, l.All())
	assert.Zero(t, l.Remove(userToGroup()))
}

func TestListReplace(t *testing.T) {
	l := NewList()
	require.NoError(t, l.Add(userToGroup()))

	replacement := []Behavior{{
		SourceType: vocabulary.Source,
		TargetType: vocabulary.Display,
		Relation:   vocabulary.DisplayedOn,
	}}
	l.Replace(replacement)

	all := l.All()
	require.Len(t, all, 1)
	assert.Equal(t, vocabulary.DisplayedOn, string(all[0].Relation))

	// The list owns its copy.
	replacement[0].Relation = "pxio:mutated"
	assert.Equal(t, vocabulary.DisplayedOn, string(l.All()[0].Relation))
}

func TestListAllReturnsCopy(t *testing.T) {
	l := NewList()
	require.NoError(t, l.Add(userToGroup()))

	all := l.All()
	all[0].Relation = "pxio:mutated"
	assert.Equal(t, vocabulary.MemberOf, string(l.All()[0].Relation))
}
