package patch

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/go-openapi/jsonpointer"
)

// parsePath splits a JSON pointer into decoded tokens (~1 is /, ~0 is ~).
func parsePath(path string) ([]string, error) {
	if path == "" || path == "/" {
		return nil, errItemPath
	}
	ptr, err := jsonpointer.New(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	tokens := ptr.DecodedTokens()
	if len(tokens) == 0 {
		return nil, errItemPath
	}
	return tokens, nil
}

// parseIndex parses an array index token. Leading zeros and signs are
// rejected as in RFC 6901.
func parseIndex(token string) (int, error) {
	if token == "" || (len(token) > 1 && token[0] == '0') {
		return 0, fmt.Errorf("%w: %q", errIndexRange, token)
	}
	i, err := strconv.Atoi(token)
	if err != nil || i < 0 || token[0] == '+' {
		return 0, fmt.Errorf("%w: %q", errIndexRange, token)
	}
	return i, nil
}

// leafFunc applies an operation to the container holding the addressed
// value and returns the new container.
type leafFunc func(parent any, key string) (any, error)

// edit returns a copy of cur with leaf applied at tokens. Only the
// containers along the path are copied; the rest is shared. When create is
// set, missing intermediate objects are created.
func edit(cur any, tokens []string, create bool, leaf leafFunc) (any, error) {
	if len(tokens) == 1 {
		return leaf(cur, tokens[0])
	}
	key, rest := tokens[0], tokens[1:]

	switch c := cur.(type) {
	case map[string]any:
		child, ok := c[key]
		if !ok || child == nil {
			if !create {
				return nil, fmt.Errorf("%w: %q", errNoSuchPath, key)
			}
			child = map[string]any{}
		}
		updated, err := edit(child, rest, create, leaf)
		if err != nil {
			return nil, err
		}
		out := maps.Clone(c)
		out[key] = updated
		return out, nil

	case []any:
		i, err := elementIndex(key, len(c))
		if err != nil {
			return nil, err
		}
		updated, err := edit(c[i], rest, create, leaf)
		if err != nil {
			return nil, err
		}
		out := slices.Clone(c)
		out[i] = updated
		return out, nil

	default:
		return nil, fmt.Errorf("%w: cannot descend into %T at %q", errNoSuchPath, cur, key)
	}
}

// elementIndex resolves a token naming an existing element; "-" is the last.
func elementIndex(token string, n int) (int, error) {
	if token == "-" {
		if n == 0 {
			return 0, fmt.Errorf("%w: empty array", errIndexRange)
		}
		return n - 1, nil
	}
	i, err := parseIndex(token)
	if err != nil {
		return 0, err
	}
	if i >= n {
		return 0, fmt.Errorf("%w: %d of %d", errIndexRange, i, n)
	}
	return i, nil
}

func addLeaf(value any) leafFunc {
	return func(parent any, key string) (any, error) {
		switch p := parent.(type) {
		case []any:
			if key == "-" {
				return append(slices.Clone(p), value), nil
			}
			i, err := parseIndex(key)
			if err != nil {
				return nil, err
			}
			if i > len(p) {
				return nil, fmt.Errorf("%w: insert at %d of %d", errIndexRange, i, len(p))
			}
			return slices.Insert(slices.Clone(p), i, value), nil
		case map[string]any:
			out := maps.Clone(p)
			out[key] = value
			return out, nil
		case nil:
			return map[string]any{key: value}, nil
		}
		return nil, fmt.Errorf("%w: cannot add to %T", errNoSuchPath, parent)
	}
}

func removeLeaf(parent any, key string) (any, error) {
	switch p := parent.(type) {
	case []any:
		i, err := elementIndex(key, len(p))
		if err != nil {
			return nil, err
		}
		return slices.Delete(slices.Clone(p), i, i+1), nil
	case map[string]any:
		if _, ok := p[key]; !ok {
			return nil, fmt.Errorf("%w: %q", errNoSuchPath, key)
		}
		out := maps.Clone(p)
		delete(out, key)
		return out, nil
	}
	return nil, fmt.Errorf("%w: cannot remove from %T", errNoSuchPath, parent)
}

// replaceLeaf overwrites the addressed value. Object fields are set even
// when absent, since optional fields are omitted from the document.
func replaceLeaf(value any) leafFunc {
	return func(parent any, key string) (any, error) {
		switch p := parent.(type) {
		case []any:
			if key == "-" {
				return nil, fmt.Errorf("%w: cannot replace past the end", errIndexRange)
			}
			i, err := elementIndex(key, len(p))
			if err != nil {
				return nil, err
			}
			out := slices.Clone(p)
			out[i] = value
			return out, nil
		case map[string]any:
			out := maps.Clone(p)
			out[key] = value
			return out, nil
		}
		return nil, fmt.Errorf("%w: cannot replace in %T", errNoSuchPath, parent)
	}
}
