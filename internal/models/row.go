package models

// RawRow is one source record. All fields are text; absence is "".
type RawRow struct {
	Line          int
	LastName      string
	FirstName     string
	Title         string
	Revival       string
	Opening       string
	Closing       string
	Performances  string
	Position      string
	PositionStart string
	PositionEnd   string
	ProfileURL    string
	Notes         string
	WorksWith     string
}

// HasPerson reports whether the row names a person.
func (r RawRow) HasPerson() bool {
	return r.FirstName != "" || r.LastName != ""
}

// DiagnosticKind classifies a non-fatal pipeline problem.
type DiagnosticKind string

const (
	DiagMissingRequiredField     DiagnosticKind = "missing_required_field"
	DiagUnparseableDate          DiagnosticKind = "unparseable_date"
	DiagFetchFailure             DiagnosticKind = "fetch_failure"
	DiagLaneAssignmentImpossible DiagnosticKind = "lane_assignment_impossible"
)

// Diagnostic records a row or entity the pipeline degraded on.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind"`
	Line    int            `json:"line,omitempty" yaml:"line,omitempty"`
	Title   string         `json:"title,omitempty" yaml:"title,omitempty"`
	Message string         `json:"message" yaml:"message"`
}

// GraphNode is a person in the relationship graph.
type GraphNode struct {
	ID          string   `json:"id" yaml:"id"`
	Label       string   `json:"label" yaml:"label"`
	Productions []string `json:"productions" yaml:"productions"`
}

// GraphEdge is an undirected "works with" relation between two people.
type GraphEdge struct {
	From   string `json:"from" yaml:"from"`
	To     string `json:"to" yaml:"to"`
	Weight int    `json:"weight" yaml:"weight"`
}

// Graph is the relationship network derived from the source rows.
type Graph struct {
	Nodes []GraphNode `json:"nodes" yaml:"nodes"`
	Edges []GraphEdge `json:"edges" yaml:"edges"`
}

// Stats summarizes one assembled model.
type Stats struct {
	Productions    int `json:"productions" yaml:"productions"`
	People         int `json:"people" yaml:"people"`
	Associations   int `json:"associations" yaml:"associations"`
	Lanes          int `json:"lanes" yaml:"lanes"`
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency"`
	RowsRead       int `json:"rows_read" yaml:"rows_read"`
	RowsDropped    int `json:"rows_dropped" yaml:"rows_dropped"`
}
