package patch

import (
	"errors"
	"fmt"

	"mindmaps/diagram"
)

// withDefaults fills the fields an inserted item is expected to carry:
// a fresh id, and for connections the default styling. Missing node
// coordinates decode as the origin.
func (a *applier) withDefaults(root string, value any) (any, error) {
	switch root {
	case RootNodes:
		var n diagram.Node
		if err := convert(value, &n); err != nil {
			return nil, fmt.Errorf("invalid node: %w", err)
		}
		if n.ID == "" {
			n.ID = a.newID()
		}
		return normalize(n)

	case RootConnections:
		var c diagram.Connection
		if err := convert(value, &c); err != nil {
			return nil, fmt.Errorf("invalid connection: %w", err)
		}
		if c.ID == "" {
			c.ID = a.newID()
		}
		return normalize(c.WithDefaults())
	}
	return value, nil
}

var errDuplicateID = errors.New("duplicate id")

// validateItem decodes the whole array addressed by root, so a type error
// anywhere is caught, then checks the item at i.
func validateItem(root string, arr []any, i int) error {
	switch root {
	case RootNodes:
		var nodes []diagram.Node
		if err := convert(arr, &nodes); err != nil {
			return fmt.Errorf("invalid node: %w", err)
		}
		if err := diagram.ValidateNode(nodes[i]); err != nil {
			return fmt.Errorf("invalid node: %w", err)
		}
		for j, n := range nodes {
			if j != i && n.ID == nodes[i].ID {
				return fmt.Errorf("%w: node %q", errDuplicateID, n.ID)
			}
		}

	case RootConnections:
		var conns []diagram.Connection
		if err := convert(arr, &conns); err != nil {
			return fmt.Errorf("invalid connection: %w", err)
		}
		if err := diagram.ValidateConnection(conns[i]); err != nil {
			return fmt.Errorf("invalid connection: %w", err)
		}
		for j, c := range conns {
			if j != i && c.ID == conns[i].ID {
				return fmt.Errorf("%w: connection %q", errDuplicateID, c.ID)
			}
		}
	}
	return nil
}
