package models

import "time"

// Repository is one entry of an organization's repository listing
type Repository struct {
	Name     string `json:"name" yaml:"name"`
	FullName string `json:"full_name" yaml:"full_name"`
	CloneURL string `json:"clone_url" yaml:"clone_url"`
}

// ResolvedPair holds the commits a local clone is compared at for one pass.
// Head is where the clone sits, FetchHead the newest fetched commit, both
// bounded by the pass cutoff.
type ResolvedPair struct {
	Head      string `json:"head"`
	FetchHead string `json:"fetch_head"`
}

// Updated reports whether the pair describes any movement
func (p ResolvedPair) Updated() bool {
	return p.Head != p.FetchHead
}

// RepoResult is the outcome of processing one repository in a pass
type RepoResult struct {
	Name      string       `json:"name"`
	Cloned    bool         `json:"cloned"`
	Pair      ResolvedPair `json:"pair"`
	DiffBytes int          `json:"diff_bytes"`
	Advanced  bool         `json:"advanced"`
	Err       error        `json:"-"`
}

// Outcomes of a repository in a pass
const (
	OutcomeCloned    = "cloned"
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeFailed    = "failed"
)

// Failed reports whether the repository could not be processed
func (r RepoResult) Failed() bool {
	return r.Err != nil
}

// Outcome classifies the result
func (r RepoResult) Outcome() string {
	switch {
	case r.Failed():
		return OutcomeFailed
	case r.Cloned:
		return OutcomeCloned
	case r.Pair.Updated():
		return OutcomeUpdated
	default:
		return OutcomeUnchanged
	}
}

// PassReport collects every repository result of a sync pass
type PassReport struct {
	Cutoff     time.Time     `json:"cutoff"`
	Results    []RepoResult  `json:"results"`
	Committed  bool          `json:"committed"`
	CommitHash string        `json:"commit_hash,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Failures returns the results that carry an error
func (r *PassReport) Failures() []RepoResult {
	var failed []RepoResult
	for _, res := range r.Results {
		if res.Failed() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Changed returns the number of repositories with a non-empty diff
func (r *PassReport) Changed() int {
	n := 0
	for _, res := range r.Results {
		if res.DiffBytes > 0 {
			n++
		}
	}
	return n
}
