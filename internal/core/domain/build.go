package domain

// DefaultMaxArticles is the article count used when a build does not specify one.
const DefaultMaxArticles = 5

// BuildState is the Build Controller's lifecycle state.
type BuildState string

// Build controller states. Succeeded and Failed are transient: the
// controller reports them in the outcome and returns to Idle immediately.
const (
	BuildIdle      BuildState = "idle"
	BuildBuilding  BuildState = "building"
	BuildSucceeded BuildState = "succeeded"
	BuildFailed    BuildState = "failed"
)

// String returns the string representation.
func (s BuildState) String() string {
	return string(s)
}

// BuildResult is the backend response to a build request.
// Success == false is a domain-level failure carried by a successful call;
// Message holds the user-facing reason and Articles may be empty.
type BuildResult struct {
	Success       bool         `json:"success"`
	Message       string       `json:"message"`
	Articles      []ArticleRef `json:"articles"`
	DocumentCount int          `json:"document_count"`
}

// BuildCompleted is emitted once per successful build.
// Topic is the topic supplied to the build request. It is never
// recovered from Message.
type BuildCompleted struct {
	Topic         string
	Message       string
	Articles      []ArticleRef
	DocumentCount int
}

// ArticleCount returns the number of indexed articles.
func (e BuildCompleted) ArticleCount() int {
	return len(e.Articles)
}

// BuildOutcome describes how a build attempt ended.
type BuildOutcome struct {
	// State is BuildSucceeded or BuildFailed.
	State BuildState

	// Topic is the topic the build was submitted with.
	Topic string

	// Event is set only on success.
	Event *BuildCompleted

	// Err is a *DomainFailure or a transport error on failure.
	Err error
}

// Succeeded reports whether the build produced a knowledge base.
func (o BuildOutcome) Succeeded() bool {
	return o.State == BuildSucceeded
}

// ErrorMessage returns the user-facing failure text, if any.
func (o BuildOutcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
