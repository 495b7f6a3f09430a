package importer

// Grouper resolves placement links into group ids. Links are undirected:
// every placement reachable through hlinked references, in either
// direction, lands in the same group. Ids are minted lazily, one per group,
// the first time a member asks for it.
type Grouper struct {
	parent map[string]string
	ids    map[string]string
	newID  func() string
}

func NewGrouper(newID func() string) *Grouper {
	return &Grouper{
		parent: make(map[string]string),
		ids:    make(map[string]string),
		newID:  newID,
	}
}

func (g *Grouper) find(h string) string {
	root, ok := g.parent[h]
	if !ok {
		g.parent[h] = h
		return h
	}
	if root == h {
		return h
	}
	root = g.find(root)
	g.parent[h] = root
	return root
}

// Link puts a and b in the same group.
func (g *Grouper) Link(a, b string) {
	ra, rb := g.find(a), g.find(b)
	if ra == rb {
		return
	}
	// keep the lexically smaller root so the structure is order independent
	if rb < ra {
		ra, rb = rb, ra
	}
	g.parent[rb] = ra
	if id, ok := g.ids[rb]; ok {
		if _, has := g.ids[ra]; !has {
			g.ids[ra] = id
		}
		delete(g.ids, rb)
	}
}

// GroupID returns the id of h's group, minting it on first use.
func (g *Grouper) GroupID(h string) string {
	root := g.find(h)
	if id, ok := g.ids[root]; ok {
		return id
	}
	id := g.newID()
	g.ids[root] = id
	return id
}
