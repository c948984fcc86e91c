// Package patch applies add/remove/replace operations to a graph snapshot.
//
// Operations address the graph as a JSON document with two arrays, nodes and
// connections, using JSON pointers:
//
//	/nodes/-            append a node
//	/nodes/2            insert, replace or remove a whole node
//	/connections/0/type set, replace or remove a single field
//
// Application is best effort. An operation that targets another root, uses
// an index out of range, carries an unusable value, or leaves the touched
// node or connection invalid is skipped and the rest still apply. Apply never
// returns an error and never modifies its input; every operation gets an
// Outcome saying whether it was applied.
package patch

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"mindmaps/diagram"

	"go.uber.org/zap"
)

// Operation kinds.
const (
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
)

// Document roots.
const (
	RootNodes       = "nodes"
	RootConnections = "connections"
)

// Operation is one structural edit.
type Operation struct {
	Op    string `json:"op" validate:"required,oneof=add remove replace"`
	Path  string `json:"path" validate:"required,startswith=/"`
	Value any    `json:"value,omitempty"`
}

// Outcome reports what happened to one operation.
type Outcome struct {
	Index   int    `json:"index"`
	Op      string `json:"op"`
	Path    string `json:"path"`
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

// Result is the patched graph plus one outcome per operation, in order.
type Result struct {
	Graph    diagram.Graph `json:"graph"`
	Outcomes []Outcome     `json:"outcomes"`
}

// Applied returns how many operations were applied.
func (r Result) Applied() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Applied {
			n++
		}
	}
	return n
}

// Skipped returns the outcomes of operations that were not applied.
func (r Result) Skipped() []Outcome {
	var skipped []Outcome
	for _, o := range r.Outcomes {
		if !o.Applied {
			skipped = append(skipped, o)
		}
	}
	return skipped
}

var (
	errUnsupportedOp   = errors.New("unsupported operation")
	errUnsupportedRoot = errors.New("path must start with /nodes or /connections")
	errItemPath        = errors.New("path must address an item or a field")
	errMissingValue    = errors.New("missing value")
	errIndexRange      = errors.New("index out of range")
	errNoSuchPath      = errors.New("path does not exist")
	errNotModelled     = errors.New("field not modelled")
)

// Option configures Apply.
type Option func(*applier)

// WithIDGenerator sets how ids are assigned to inserted items without one.
func WithIDGenerator(gen diagram.IDGenerator) Option {
	return func(a *applier) {
		if gen != nil {
			a.newID = gen
		}
	}
}

// WithLogger logs skipped operations at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(a *applier) {
		if logger != nil {
			a.logger = logger
		}
	}
}

type applier struct {
	newID  diagram.IDGenerator
	logger *zap.Logger
}

// Apply applies ops to g in order and returns the new graph. Input values
// are normalised through their JSON form, so ops decoded from JSON and ops
// built from Go values (a diagram.Node, a map) behave the same. Non-finite
// numbers in g are replaced first, as diagram.Graph.Sanitize does.
func Apply(g diagram.Graph, ops []Operation, opts ...Option) Result {
	a := &applier{newID: diagram.NewID, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}

	g = g.Sanitize()
	doc, err := toDocument(g)
	if err != nil {
		// A typed graph always encodes; keep the contract of never failing.
		a.logger.Error("encode graph for patching", zap.Error(err))
		return Result{Graph: g.Clone(), Outcomes: skipAll(ops, err)}
	}

	result := Result{Outcomes: make([]Outcome, 0, len(ops))}
	for i, op := range ops {
		outcome := Outcome{Index: i, Op: op.Op, Path: op.Path}
		next, err := a.applySafe(doc, op)
		if err != nil {
			outcome.Reason = err.Error()
			a.logger.Debug("patch operation skipped",
				zap.Int("index", i),
				zap.String("op", op.Op),
				zap.String("path", op.Path),
				zap.Error(err),
			)
		} else {
			doc = next
			outcome.Applied = true
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	out, err := fromDocument(doc)
	if err != nil {
		a.logger.Error("decode patched graph", zap.Error(err))
		return Result{Graph: g.Clone(), Outcomes: skipAll(ops, err)}
	}
	result.Graph = out
	return result
}

func skipAll(ops []Operation, err error) []Outcome {
	out := make([]Outcome, len(ops))
	for i, op := range ops {
		out[i] = Outcome{Index: i, Op: op.Op, Path: op.Path, Reason: err.Error()}
	}
	return out
}

// applySafe applies one operation to a copy of doc. Panics are converted to
// errors so one bad operation cannot take down the rest.
func (a *applier) applySafe(doc map[string]any, op Operation) (next map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			next, err = nil, fmt.Errorf("operation failed: %v", r)
		}
	}()
	return a.apply(doc, op)
}

func (a *applier) apply(doc map[string]any, op Operation) (map[string]any, error) {
	tokens, err := parsePath(op.Path)
	if err != nil {
		return nil, err
	}
	root := tokens[0]
	if root != RootNodes && root != RootConnections {
		return nil, fmt.Errorf("%w: %q", errUnsupportedRoot, root)
	}
	if len(tokens) < 2 {
		return nil, errItemPath
	}
	if len(tokens) > 2 && !modelled[root][tokens[2]] {
		return nil, fmt.Errorf("%w: %q", errNotModelled, tokens[2])
	}

	var value any
	switch op.Op {
	case OpAdd, OpReplace:
		if op.Value == nil {
			return nil, errMissingValue
		}
		value, err = normalize(op.Value)
		if err != nil {
			return nil, err
		}
		if op.Op == OpAdd && len(tokens) == 2 {
			if value, err = a.withDefaults(root, value); err != nil {
				return nil, err
			}
		}
	case OpRemove:
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedOp, op.Op)
	}

	items, _ := doc[root].([]any)
	if items == nil {
		items = []any{}
	}
	var updated any
	switch op.Op {
	case OpAdd:
		updated, err = edit(items, tokens[1:], true, addLeaf(value))
	case OpRemove:
		updated, err = edit(items, tokens[1:], false, removeLeaf)
	case OpReplace:
		updated, err = edit(items, tokens[1:], false, replaceLeaf(value))
	}
	if err != nil {
		return nil, err
	}

	arr, ok := updated.([]any)
	if !ok {
		return nil, fmt.Errorf("%s is no longer an array", root)
	}
	if touched, ok := touchedIndex(op.Op, tokens[1:], len(items), len(arr)); ok {
		if err := validateItem(root, arr, touched); err != nil {
			return nil, err
		}
	}

	next := make(map[string]any, len(doc))
	for k, v := range doc {
		next[k] = v
	}
	next[root] = arr
	return next, nil
}

// touchedIndex returns the index of the item an operation left in place, if
// any. Removing a whole item leaves nothing to validate.
func touchedIndex(op string, tokens []string, before, after int) (int, bool) {
	if len(tokens) == 1 && op == OpRemove {
		return 0, false
	}
	if tokens[0] == "-" {
		if op == OpAdd && len(tokens) == 1 {
			return after - 1, true
		}
		// A field edit through "-" addresses the last item.
		if before == 0 {
			return 0, false
		}
		return before - 1, true
	}
	i, err := parseIndex(tokens[0])
	if err != nil || i >= after {
		return 0, false
	}
	return i, true
}

// modelled holds the JSON field names of each item type. Field paths outside
// these would be dropped when the document is decoded back into a graph.
var modelled = map[string]map[string]bool{
	RootNodes:       jsonFields(reflect.TypeOf(diagram.Node{})),
	RootConnections: jsonFields(reflect.TypeOf(diagram.Connection{})),
}

func jsonFields(t reflect.Type) map[string]bool {
	out := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		out[name] = true
	}
	return out
}

// toDocument encodes g as a generic JSON document.
func toDocument(g diagram.Graph) (map[string]any, error) {
	if g.Nodes == nil {
		g.Nodes = []diagram.Node{}
	}
	if g.Connections == nil {
		g.Connections = []diagram.Connection{}
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// fromDocument decodes a generic document back into a graph. Fields the
// graph does not model are dropped.
func fromDocument(doc map[string]any) (diagram.Graph, error) {
	var g diagram.Graph
	if err := convert(doc, &g); err != nil {
		return diagram.Graph{}, err
	}
	if g.Nodes == nil {
		g.Nodes = []diagram.Node{}
	}
	if g.Connections == nil {
		g.Connections = []diagram.Connection{}
	}
	return g, nil
}

// normalize turns any Go value into its generic JSON form.
func normalize(v any) (any, error) {
	var out any
	if err := convert(v, &out); err != nil {
		return nil, fmt.Errorf("unusable value: %w", err)
	}
	return out, nil
}

func convert(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
