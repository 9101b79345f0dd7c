package core

// SearchResult is a single web search hit recorded in workflow state.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`
}

// ThreadsResult records one executed platform action and its textual outcome.
type ThreadsResult struct {
	Action string `json:"action"`
	Result string `json:"result"`
}

// State is the record threaded through every node of a run. A single state
// value flows linearly through the graph; each node receives one state and
// returns an updated copy, so no concurrent mutation occurs within a run.
type State struct {
	Messages       []Message       `json:"messages"`
	Plan           *Plan           `json:"plan,omitempty"`
	WebResults     []SearchResult  `json:"web_search_results,omitempty"`
	ThreadsResults []ThreadsResult `json:"threads_results,omitempty"`
	CurrentAction  string          `json:"current_action,omitempty"`
	NextAgent      AgentName       `json:"next_agent,omitempty"`
	Error          string          `json:"error,omitempty"`
	Output         string          `json:"output,omitempty"`
}

// NewState initializes run state from the incoming conversation.
func NewState(messages []Message) State {
	msgs := make([]Message, len(messages))
	copy(msgs, messages)
	return State{Messages: msgs}
}

// Clone returns a deep copy so a node can mutate its own state without
// aliasing the caller's slices or plan.
func (s State) Clone() State {
	cp := s
	cp.Messages = make([]Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	if s.WebResults != nil {
		cp.WebResults = make([]SearchResult, len(s.WebResults))
		copy(cp.WebResults, s.WebResults)
	}
	if s.ThreadsResults != nil {
		cp.ThreadsResults = make([]ThreadsResult, len(s.ThreadsResults))
		copy(cp.ThreadsResults, s.ThreadsResults)
	}
	cp.Plan = s.Plan.Clone()
	return cp
}

// FirstUserContent returns the original request of the run, or empty when no
// user message exists.
func (s State) FirstUserContent() string {
	content, _ := FirstUserContent(s.Messages)
	return content
}

// LastUserContent returns the most recent user message content, or empty when
// none exists.
func (s State) LastUserContent() string {
	content, _ := LastUserContent(s.Messages)
	return content
}

// AppendAssistant appends an assistant message to the conversation.
func (s *State) AppendAssistant(content string) {
	s.Messages = append(s.Messages, AssistantMessage(content))
}
