package patch

import (
	"reflect"
	"sort"
	"strconv"

	"mindmaps/diagram"

	"github.com/go-openapi/jsonpointer"
)

// Diff returns operations that turn a into b. Items are matched by id:
// removed items are removed from the highest index down, surviving items get
// one operation per changed field, and new items are appended in b's order.
// Connections are replaced whole, so an intermediate step never joins a node
// to itself. Applying the result to a yields b up to the position of new items.
func Diff(a, b diagram.Graph) []Operation {
	var ops []Operation
	ops = append(ops, diffItems(RootNodes, nodeDocs(a.Nodes), nodeDocs(b.Nodes), false)...)
	ops = append(ops, diffItems(RootConnections, connDocs(a.Connections), connDocs(b.Connections), true)...)
	return ops
}

type item struct {
	id  string
	doc map[string]any
}

func nodeDocs(nodes []diagram.Node) []item {
	out := make([]item, len(nodes))
	for i, n := range nodes {
		out[i] = item{id: n.ID, doc: asDoc(n)}
	}
	return out
}

func connDocs(conns []diagram.Connection) []item {
	out := make([]item, len(conns))
	for i, c := range conns {
		out[i] = item{id: c.ID, doc: asDoc(c)}
	}
	return out
}

func asDoc(v any) map[string]any {
	var doc map[string]any
	_ = convert(v, &doc)
	return doc
}

func diffItems(root string, before, after []item, whole bool) []Operation {
	var ops []Operation

	wanted := make(map[string]map[string]any, len(after))
	for _, it := range after {
		wanted[it.id] = it.doc
	}

	var kept []item
	for i := len(before) - 1; i >= 0; i-- {
		if _, ok := wanted[before[i].id]; !ok {
			ops = append(ops, Operation{Op: OpRemove, Path: itemPath(root, i)})
		}
	}
	for _, it := range before {
		if _, ok := wanted[it.id]; ok {
			kept = append(kept, it)
		}
	}

	index := make(map[string]int, len(kept))
	for i, it := range kept {
		index[it.id] = i
	}
	for _, it := range after {
		i, ok := index[it.id]
		if !ok {
			ops = append(ops, Operation{Op: OpAdd, Path: "/" + root + "/-", Value: it.doc})
			index[it.id] = -1
			continue
		}
		if i < 0 {
			continue
		}
		switch {
		case !whole:
			ops = append(ops, diffFields(itemPath(root, i), kept[i].doc, it.doc)...)
		case !reflect.DeepEqual(kept[i].doc, it.doc):
			ops = append(ops, Operation{Op: OpReplace, Path: itemPath(root, i), Value: it.doc})
		}
	}
	return ops
}

func diffFields(prefix string, before, after map[string]any) []Operation {
	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var ops []Operation
	for _, k := range keys {
		path := prefix + "/" + jsonpointer.Escape(k)
		old, had := before[k]
		val, has := after[k]
		switch {
		case had && !has:
			ops = append(ops, Operation{Op: OpRemove, Path: path})
		case !reflect.DeepEqual(old, val):
			ops = append(ops, Operation{Op: OpReplace, Path: path, Value: val})
		}
	}
	return ops
}

func itemPath(root string, i int) string {
	return "/" + root + "/" + strconv.Itoa(i)
}
