package importer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func counter() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("g%d", n)
	}
}

func TestGrouper_LazyIDs(t *testing.T) {
	g := NewGrouper(counter())

	assert.Equal(t, "g1", g.GroupID("b"))
	assert.Equal(t, "g2", g.GroupID("a"))
	assert.Equal(t, "g1", g.GroupID("b"))
}

func TestGrouper_LinkIsSymmetric(t *testing.T) {
	g1 := NewGrouper(counter())
	g1.Link("1", "2")

	g2 := NewGrouper(counter())
	g2.Link("2", "1")

	assert.Equal(t, g1.GroupID("1"), g1.GroupID("2"))
	assert.Equal(t, g2.GroupID("1"), g2.GroupID("2"))
}

func TestGrouper_Transitive(t *testing.T) {
	g := NewGrouper(counter())
	g.Link("c", "b")
	g.Link("a", "b")
	g.Link("d", "e")

	id := g.GroupID("a")
	assert.Equal(t, id, g.GroupID("b"))
	assert.Equal(t, id, g.GroupID("c"))
	assert.NotEqual(t, id, g.GroupID("d"))
	assert.Equal(t, g.GroupID("d"), g.GroupID("e"))
}

func TestGrouper_LinkKeepsMintedID(t *testing.T) {
	g := NewGrouper(counter())
	id := g.GroupID("z")

	g.Link("a", "z")
	assert.Equal(t, id, g.GroupID("a"))

	other := g.GroupID("m")
	g.Link("m", "a")
	got := g.GroupID("m")
	assert.Equal(t, got, g.GroupID("z"))
	assert.Contains(t, []string{id, other}, got)
}
