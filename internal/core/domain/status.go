package domain

// ArticleRef is an article indexed into the knowledge base.
// Values are produced by the backend and never modified client-side.
type ArticleRef struct {
	// Title is the article title.
	Title string `json:"title"`

	// URL links to the article.
	URL string `json:"url"`

	// Summary is a short excerpt. The backend may omit it.
	Summary *string `json:"summary,omitempty"`
}

// HasSummary reports whether the article carries a non-empty summary.
func (a ArticleRef) HasSummary() bool {
	return a.Summary != nil && *a.Summary != ""
}

// StatusSnapshot is the backend's view of the knowledge base.
//
// KBReady == false normally implies Topic == nil, but a snapshot may be
// optimistically marked ready before the backend confirms the counters.
// Consumers must not assume the fields are mutually consistent.
type StatusSnapshot struct {
	KBReady            bool         `json:"kb_ready"`
	Topic              *string      `json:"topic"`
	ArticleCount       int          `json:"article_count"`
	DocumentCount      int          `json:"document_count"`
	ConversationLength int          `json:"conversation_length"`
	Articles           []ArticleRef `json:"articles"`
}

// TopicName returns the topic or an empty string when none is set.
func (s StatusSnapshot) TopicName() string {
	if s.Topic == nil {
		return ""
	}
	return *s.Topic
}

// Clone returns a deep copy safe to hand to other components.
func (s StatusSnapshot) Clone() StatusSnapshot {
	out := s
	if s.Topic != nil {
		t := *s.Topic
		out.Topic = &t
	}
	if s.Articles != nil {
		out.Articles = append([]ArticleRef(nil), s.Articles...)
	}
	return out
}

// SearchHit is a single article title returned by a backend search.
type SearchHit struct {
	Title string `json:"title"`
}

// StringPtr returns a pointer to s. Empty strings map to nil.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
