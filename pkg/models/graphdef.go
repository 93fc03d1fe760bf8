package models

// GraphDefinition is the stored, user-authored node/edge list a dynamic
// campaign carries. It is compiled and validated before any lead is processed.
type GraphDefinition struct {
	Nodes []GraphDefNode `json:"nodes" validate:"required,min=1,dive"`
	Edges []GraphDefEdge `json:"edges" validate:"dive"`
}

// GraphDefNode references a node type from the registry. The type "start" is
// a marker resolved by the compiler into the graph's entry point.
type GraphDefNode struct {
	ID   string         `json:"id"   validate:"required"`
	Type string         `json:"type" validate:"required"`
	Data map[string]any `json:"data,omitempty"`
}

// GraphDefEdge connects two declared nodes. An empty condition marks the
// default edge, which must be declared last for its source node.
type GraphDefEdge struct {
	Source    string `json:"source" validate:"required"`
	Target    string `json:"target" validate:"required"`
	Condition string `json:"condition,omitempty"`
}
