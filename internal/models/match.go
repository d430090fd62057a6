package models

// CandidateMatch scores one candidate against a job posting.
type CandidateMatch struct {
	Candidate   User   `json:"candidate"`
	MatchScore  int    `json:"matchScore"`
	MatchReason string `json:"matchReason"`
}

// JobMatch scores one job posting against a candidate's profile.
type JobMatch struct {
	Job         Job    `json:"job"`
	MatchScore  int    `json:"matchScore"`
	MatchReason string `json:"matchReason"`
}
