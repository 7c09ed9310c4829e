package buildlog

// Wire discriminants for the "type" field.
const (
	TypeEdgeStarted   = "build_edge_started"
	TypeEdgeFinished  = "build_edge_finished"
	TypeTotalEdges    = "total_edges"
	TypeStatusChanged = "build_status_changed"
)

// Message is one decoded event from the build engine. It is implemented by
// EdgeStarted, EdgeFinished, TotalEdgesHint and StatusChanged only.
type Message interface {
	// Type returns the wire discriminant.
	Type() string
	isMessage()
}

// EdgeStarted reports that the producer began running an edge.
type EdgeStarted struct {
	ID        EdgeID
	Command   string
	StartTime Millis
	Inputs    []InputBinding
	Outputs   []OutputBinding
}

// EdgeFinished reports that a previously started edge completed.
type EdgeFinished struct {
	ID      EdgeID
	EndTime Millis
	Success bool
	Output  string
}

// TotalEdgesHint is the producer's current estimate of the total work.
type TotalEdgesHint struct {
	Total int
}

// StatusChanged reports a change of the overall build phase.
type StatusChanged struct {
	Status Phase
}

func (EdgeStarted) Type() string    { return TypeEdgeStarted }
func (EdgeFinished) Type() string   { return TypeEdgeFinished }
func (TotalEdgesHint) Type() string { return TypeTotalEdges }
func (StatusChanged) Type() string  { return TypeStatusChanged }

func (EdgeStarted) isMessage()    {}
func (EdgeFinished) isMessage()   {}
func (TotalEdgesHint) isMessage() {}
func (StatusChanged) isMessage()  {}
