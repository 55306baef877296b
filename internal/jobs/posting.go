package jobs

// Posting is a single job listing returned by the remote source. The ID is
// assigned by the source and unique within a run.
type Posting struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Company     string `json:"company,omitempty"`
	Location    string `json:"location,omitempty"`
	Salary      *int   `json:"salary,omitempty"`
	EasyApply   bool   `json:"easy_apply,omitempty"`
	Description string `json:"description,omitempty"`
}

// PostingSet is a collection of postings deduplicated by ID. Iteration order
// is insertion order, which keeps downstream stages deterministic.
type PostingSet struct {
	order []string
	byID  map[string]*Posting
}

func NewPostingSet() *PostingSet {
	return &PostingSet{byID: make(map[string]*Posting)}
}

// Add inserts the posting unless one with the same ID is already present.
// It reports whether the posting was added.
func (s *PostingSet) Add(p *Posting) bool {
	if p == nil || p.ID == "" {
		return false
	}
	if _, ok := s.byID[p.ID]; ok {
		return false
	}
	s.byID[p.ID] = p
	s.order = append(s.order, p.ID)
	return true
}

// Merge adds all postings, collapsing duplicates, and returns how many were new.
func (s *PostingSet) Merge(postings []*Posting) int {
	added := 0
	for _, p := range postings {
		if s.Add(p) {
			added++
		}
	}
	return added
}

func (s *PostingSet) Len() int {
	return len(s.order)
}

// Get returns the posting with the given ID, or nil.
func (s *PostingSet) Get(id string) *Posting {
	return s.byID[id]
}

// Items returns the postings in insertion order.
func (s *PostingSet) Items() []*Posting {
	items := make([]*Posting, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.byID[id])
	}
	return items
}
