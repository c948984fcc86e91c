package proposal

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"mindmaps/diagram"
	"mindmaps/layout"
	"mindmaps/patch"
	"mindmaps/sizing"
)

// Review is a proposal prepared for approval: temporary ids are already
// rewritten and Preview shows the graph as it would look if approved against
// the snapshot the review was built from.
type Review struct {
	Summary  string            `json:"summary"`
	Ops      []patch.Operation `json:"patch"`
	IDs      map[string]string `json:"ids"`
	Unplaced []string          `json:"unplaced"`
	Preview  patch.Result      `json:"preview"`
}

// Reviewer turns responses into reviews and applies approved ones.
type Reviewer struct {
	layout *layout.RingLayout
	newID  diagram.IDGenerator
	logger *zap.Logger
}

// ReviewerOption configures a Reviewer.
type ReviewerOption func(*Reviewer)

// WithReviewLayout sets the layout used for nodes proposed without coordinates.
func WithReviewLayout(l *layout.RingLayout) ReviewerOption {
	return func(r *Reviewer) {
		if l != nil {
			r.layout = l
		}
	}
}

// WithReviewIDs sets the generator for permanent ids.
func WithReviewIDs(gen diagram.IDGenerator) ReviewerOption {
	return func(r *Reviewer) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithReviewLogger sets the logger.
func WithReviewLogger(logger *zap.Logger) ReviewerOption {
	return func(r *Reviewer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReviewer creates a Reviewer.
func NewReviewer(opts ...ReviewerOption) *Reviewer {
	r := &Reviewer{newID: diagram.NewID, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if r.layout == nil {
		r.layout = layout.NewRingLayout(sizing.NewEngine(0), layout.DefaultOptions())
	}
	return r
}

// Review prepares resp against base.
func (r *Reviewer) Review(base diagram.Graph, resp Response) *Review {
	rev := &Review{
		Summary: strings.TrimSpace(resp.Summary),
		IDs:     make(map[string]string),
	}

	values := make([]any, len(resp.Patch))
	for i, op := range resp.Patch {
		values[i] = normalize(op.Value)
		collectTempIDs(values[i], rev.IDs, r.newID)
	}

	rev.Ops = make([]patch.Operation, len(resp.Patch))
	for i, op := range resp.Patch {
		v := rewrite(values[i], rev.IDs)
		if op.Op == patch.OpAdd && addsNode(op.Path) {
			if obj, ok := v.(map[string]any); ok {
				if id, _ := obj["id"].(string); id == "" {
					obj["id"] = r.newID()
				}
				_, hasX := obj["x"]
				_, hasY := obj["y"]
				if !hasX || !hasY {
					rev.Unplaced = append(rev.Unplaced, obj["id"].(string))
				}
			}
		}
		rev.Ops[i] = patch.Operation{Op: op.Op, Path: op.Path, Value: v}
	}

	rev.Preview = r.Apply(base, rev)
	r.logger.Debug("proposal reviewed",
		zap.Int("operations", len(rev.Ops)),
		zap.Int("applicable", rev.Preview.Applied()),
		zap.Int("temp_ids", len(rev.IDs)),
		zap.Int("unplaced", len(rev.Unplaced)))
	return rev
}

// Apply runs the reviewed operations against g and positions the nodes that
// were proposed without coordinates.
func (r *Reviewer) Apply(g diagram.Graph, rev *Review) patch.Result {
	res := patch.Apply(g, rev.Ops, patch.WithIDGenerator(r.newID), patch.WithLogger(r.logger))

	var pending []string
	for _, id := range rev.Unplaced {
		if _, ok := res.Graph.NodeByID(id); ok {
			pending = append(pending, id)
		}
	}
	if len(pending) > 0 {
		res.Graph = r.layout.Place(res.Graph, pending)
	}
	return res
}

// addsNode reports whether path appends or inserts a whole node.
func addsNode(path string) bool {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	return len(parts) == 2 && parts[0] == patch.RootNodes
}

// collectTempIDs assigns a permanent id to every temporary id found in an
// id, sourceId or targetId field.
func collectTempIDs(v any, ids map[string]string, gen diagram.IDGenerator) {
	switch t := v.(type) {
	case map[string]any:
		for key, val := range t {
			if s, ok := val.(string); ok && isIDField(key) && diagram.IsTempID(s) {
				if _, seen := ids[s]; !seen {
					ids[s] = gen()
				}
			}
			collectTempIDs(val, ids, gen)
		}
	case []any:
		for _, val := range t {
			collectTempIDs(val, ids, gen)
		}
	}
}

func isIDField(key string) bool {
	return key == "id" || key == "sourceId" || key == "targetId"
}

// rewrite replaces every string equal to a known temporary id.
func rewrite(v any, ids map[string]string) any {
	switch t := v.(type) {
	case string:
		if p, ok := ids[t]; ok {
			return p
		}
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for key, val := range t {
			out[key] = rewrite(val, ids)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = rewrite(val, ids)
		}
		return out
	default:
		return v
	}
}

// normalize converts a Go value into its generic JSON form.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}
