package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/web3hire/web3hire-be/internal/apperr"
	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/models"
)

// MatchServiceProvider defines the interface for the matching scorer.
type MatchServiceProvider interface {
	CandidatesForJob(ctx context.Context, jobID string) ([]models.CandidateMatch, error)
	JobsForCandidate(ctx context.Context, claims *auth.Claims, candidateID string) ([]models.JobMatch, error)
}

// MatchService ranks candidates against jobs with a fixed weighted sum.
// The weights are part of the product behavior and are covered by tests;
// change them deliberately or not at all.
type MatchService struct {
	users UserServiceProvider
	jobs  JobServiceProvider
}

// NewMatchService creates a new MatchService.
func NewMatchService(users UserServiceProvider, jobs JobServiceProvider) *MatchService {
	return &MatchService{users: users, jobs: jobs}
}

// skillsOverlap counts entries of a that match any entry of b, where
// "match" is a case-insensitive substring hit in either direction.
func skillsOverlap(a, b []string) int {
	count := 0
	for _, skill := range a {
		s := strings.ToLower(skill)
		for _, other := range b {
			o := strings.ToLower(other)
			if strings.Contains(s, o) || strings.Contains(o, s) {
				count++
				break
			}
		}
	}
	return count
}

func clampScore(score int) int {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// CandidatesForJob scores every candidate against the job: skills up to
// 50, resume on file +20, profile completeness up to 30.
func (s *MatchService) CandidatesForJob(ctx context.Context, jobID string) ([]models.CandidateMatch, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.users.ListUsers(ctx, models.RoleCandidate)
	if err != nil {
		return nil, err
	}

	matches := make([]models.CandidateMatch, 0, len(candidates))
	for _, candidate := range candidates {
		score := 0
		var reasons []string

		if len(candidate.Skills) > 0 && len(job.SkillsRequired) > 0 {
			matching := skillsOverlap(candidate.Skills, job.SkillsRequired)
			skillScore := int(math.Round(float64(matching) / float64(len(job.SkillsRequired)) * 50))
			if skillScore > 50 {
				skillScore = 50
			}
			score += skillScore
			if matching > 0 {
				reasons = append(reasons, "relevant skills on profile")
			}
		}

		if candidate.ResumeIpfsHash != "" {
			score += 20
			reasons = append(reasons, "resume on file")
		}

		completeness := 0
		if candidate.Name != "" {
			completeness += 10
		}
		if len(candidate.Bio) > 50 {
			completeness += 10
		}
		if candidate.SocialLinks.HasAnySocialLink() {
			completeness += 10
		}
		score += completeness
		if completeness > 0 {
			reasons = append(reasons, "profile filled out")
		}

		matches = append(matches, models.CandidateMatch{
			Candidate:   candidate,
			MatchScore:  clampScore(score),
			MatchReason: strings.Join(reasons, ", "),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	return matches, nil
}

// JobsForCandidate scores every job against the candidate: skills up to
// 60, employment-type preference +20, remote preference +20. Candidates
// may only view their own matches; admins may view anyone's.
func (s *MatchService) JobsForCandidate(ctx context.Context, claims *auth.Claims, candidateID string) ([]models.JobMatch, error) {
	if claims == nil {
		return nil, apperr.Unauthenticated("missing credentials")
	}
	if claims.UserID != candidateID && claims.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("not authorized to view these matches")
	}

	candidate, err := s.users.GetUserByID(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	jobs, err := s.jobs.ListJobs(ctx, "")
	if err != nil {
		return nil, err
	}

	matches := make([]models.JobMatch, 0, len(jobs))
	for _, job := range jobs {
		score := 0
		var reasons []string

		if len(candidate.Skills) > 0 && len(job.SkillsRequired) > 0 {
			matching := skillsOverlap(job.SkillsRequired, candidate.Skills)
			skillScore := int(math.Round(float64(matching) / float64(len(job.SkillsRequired)) * 60))
			if skillScore > 60 {
				skillScore = 60
			}
			score += skillScore
			if matching > 0 {
				reasons = append(reasons, "skills match the requirements")
			}
		}

		if candidate.Preferences.JobType != "" && string(job.EmploymentType) == candidate.Preferences.JobType {
			score += 20
			reasons = append(reasons, "employment type matches preference")
		}

		if candidate.Preferences.Remote != nil && *candidate.Preferences.Remote == job.Remote {
			score += 20
			reasons = append(reasons, "remote option matches preference")
		}

		matches = append(matches, models.JobMatch{
			Job:         job,
			MatchScore:  clampScore(score),
			MatchReason: strings.Join(reasons, ", "),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	return matches, nil
}
