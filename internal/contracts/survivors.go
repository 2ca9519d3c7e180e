package contracts

import "sort"

// SurvivorSet tracks which submissions are still in contention. The
// set only ever shrinks: a candidate eliminated at one stage never
// reappears later.
type SurvivorSet struct {
	order []string
	byID  map[string]Submission
}

// NewSurvivorSet seeds the set with the initial candidates, ordered
// by submission ID.
func NewSurvivorSet(subs []Submission) *SurvivorSet {
	s := &SurvivorSet{byID: make(map[string]Submission, len(subs))}
	for _, sub := range subs {
		if _, ok := s.byID[sub.ID]; ok {
			continue
		}
		s.byID[sub.ID] = sub
		s.order = append(s.order, sub.ID)
	}
	sort.Strings(s.order)
	return s
}

// Len returns the number of remaining candidates.
func (s *SurvivorSet) Len() int {
	return len(s.order)
}

// Contains reports whether a submission is still in contention.
func (s *SurvivorSet) Contains(id string) bool {
	_, ok := s.byID[id]
	return ok
}

// Submissions returns the remaining candidates in ID order.
func (s *SurvivorSet) Submissions() []Submission {
	out := make([]Submission, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Eliminate removes the given IDs. Unknown IDs are ignored; the set
// never grows.
func (s *SurvivorSet) Eliminate(ids ...string) {
	for _, id := range ids {
		if _, ok := s.byID[id]; !ok {
			continue
		}
		delete(s.byID, id)
	}

	kept := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.byID[id]; ok {
			kept = append(kept, id)
		}
	}
	s.order = kept
}

// ApplyStage eliminates every candidate whose stage result did not
// pass. Results for IDs not in the set are ignored.
func (s *SurvivorSet) ApplyStage(results []*StageResult) {
	for _, r := range results {
		if r == nil {
			continue
		}
		if !r.Passed {
			s.Eliminate(r.SubmissionID)
		}
	}
}
