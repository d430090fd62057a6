package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/web3hire/web3hire-be/internal/apperr"
	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/models"
)

// CreateJobInput carries the fields an employer sets on a new posting.
type CreateJobInput struct {
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	SkillsRequired []string              `json:"skillsRequired"`
	Salary         string                `json:"salary"`
	Remote         bool                  `json:"remote"`
	Location       string                `json:"location"`
	CompanyName    string                `json:"companyName"`
	CompanyLogo    string                `json:"companyLogo"`
	EmploymentType models.EmploymentType `json:"employmentType"`
}

// JobUpdate is a partial patch over a job's descriptive fields.
type JobUpdate struct {
	Title          *string                `json:"title"`
	Description    *string                `json:"description"`
	SkillsRequired *[]string              `json:"skillsRequired"`
	Salary         *string                `json:"salary"`
	Remote         *bool                  `json:"remote"`
	Location       *string                `json:"location"`
	CompanyName    *string                `json:"companyName"`
	CompanyLogo    *string                `json:"companyLogo"`
	EmploymentType *models.EmploymentType `json:"employmentType"`
}

// JobServiceProvider defines the interface for job board services.
type JobServiceProvider interface {
	CreateJob(ctx context.Context, claims *auth.Claims, input CreateJobInput) (models.Job, error)
	GetJob(ctx context.Context, id string) (models.Job, error)
	ListJobs(ctx context.Context, status models.JobStatus) ([]models.Job, error)
	JobsByEmployer(ctx context.Context, employerID string) ([]models.Job, error)
	SearchJobs(ctx context.Context, query string) ([]models.Job, error)
	UpdateJob(ctx context.Context, claims *auth.Claims, id string, patch JobUpdate) (models.Job, error)
	CloseJob(ctx context.Context, claims *auth.Claims, id string) (models.Job, error)
	ApplyToJob(ctx context.Context, claims *auth.Claims, jobID string) (models.Job, error)
}

// JobService provides business logic for the job board. It mirrors the
// task workflow minus the award/deliverable machinery.
type JobService struct {
	db    *sql.DB
	users UserServiceProvider
}

// NewJobService creates a new JobService.
func NewJobService(db *sql.DB, users UserServiceProvider) *JobService {
	return &JobService{db: db, users: users}
}

const jobColumns = `id, title, description, skills_json, salary, remote, location,
	employer_id, company_name, company_logo, employment_type, status, created_at, updated_at`

func scanJob(scanner interface{ Scan(...interface{}) error }) (models.Job, error) {
	var job models.Job
	var skills, location, companyName, companyLogo sql.NullString

	err := scanner.Scan(
		&job.ID, &job.Title, &job.Description, &skills, &job.Salary, &job.Remote,
		&location, &job.EmployerID, &companyName, &companyLogo,
		&job.EmploymentType, &job.Status, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return job, err
	}

	job.Location = location.String
	job.CompanyName = companyName.String
	job.CompanyLogo = companyLogo.String
	if skills.String != "" {
		_ = json.Unmarshal([]byte(skills.String), &job.SkillsRequired)
	}
	job.ApplicantIDs = []string{}
	return job, nil
}

func (s *JobService) loadJob(ctx context.Context, id string) (models.Job, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Job{}, apperr.NotFound("job not found")
		}
		return models.Job{}, apperr.Upstream("loading job", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM job_applicants WHERE job_id = ? ORDER BY applied_at, rowid", id)
	if err != nil {
		return models.Job{}, apperr.Upstream("loading applicants", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return models.Job{}, apperr.Upstream("scanning applicant", err)
		}
		job.ApplicantIDs = append(job.ApplicantIDs, userID)
	}
	if err := rows.Err(); err != nil {
		return models.Job{}, apperr.Upstream("loading applicants", err)
	}

	// Read-side projection of employer and applicants.
	if employer, err := s.users.GetUserByID(ctx, job.EmployerID); err == nil {
		job.Employer = &employer
	}
	for _, userID := range job.ApplicantIDs {
		if applicant, err := s.users.GetUserByID(ctx, userID); err == nil {
			job.Applicants = append(job.Applicants, applicant)
		}
	}
	return job, nil
}

// CreateJob opens a new posting. Only employers and admins may create.
func (s *JobService) CreateJob(ctx context.Context, claims *auth.Claims, input CreateJobInput) (models.Job, error) {
	if err := auth.Authorize(claims, "", models.RoleEmployer); err != nil {
		return models.Job{}, apperr.Forbidden("only employers can create jobs")
	}

	employmentType := input.EmploymentType
	if employmentType == "" {
		employmentType = models.EmploymentFullTime
	}
	skills, _ := json.Marshal(input.SkillsRequired)

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, title, description, skills_json, salary, remote, location,
			employer_id, company_name, company_logo, employment_type, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, input.Title, input.Description, string(skills), input.Salary, input.Remote,
		input.Location, claims.UserID, input.CompanyName, input.CompanyLogo,
		employmentType, models.JobOpen, now, now,
	)
	if err != nil {
		return models.Job{}, apperr.Upstream("creating job", err)
	}
	return s.loadJob(ctx, id)
}

// GetJob retrieves a single job with its projections.
func (s *JobService) GetJob(ctx context.Context, id string) (models.Job, error) {
	return s.loadJob(ctx, id)
}

func (s *JobService) listJobs(ctx context.Context, where string, args ...interface{}) ([]models.Job, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM jobs "+where, args...)
	if err != nil {
		return nil, apperr.Upstream("listing jobs", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Upstream("scanning job id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstream("listing jobs", err)
	}

	jobs := make([]models.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.loadJob(ctx, id)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// ListJobs returns jobs, optionally filtered by status.
func (s *JobService) ListJobs(ctx context.Context, status models.JobStatus) ([]models.Job, error) {
	if status != "" {
		return s.listJobs(ctx, "WHERE status = ? ORDER BY created_at DESC", status)
	}
	return s.listJobs(ctx, "ORDER BY created_at DESC")
}

// JobsByEmployer returns every posting owned by the given employer.
func (s *JobService) JobsByEmployer(ctx context.Context, employerID string) ([]models.Job, error) {
	return s.listJobs(ctx, "WHERE employer_id = ? ORDER BY created_at DESC", employerID)
}

// SearchJobs matches query against title, description and skills.
func (s *JobService) SearchJobs(ctx context.Context, query string) ([]models.Job, error) {
	pattern := "%" + query + "%"
	return s.listJobs(ctx, `
		WHERE title LIKE ? OR description LIKE ? OR skills_json LIKE ?
		ORDER BY CASE WHEN title LIKE ? THEN 0 ELSE 1 END, created_at DESC`,
		pattern, pattern, pattern, pattern)
}

func (s *JobService) jobOwner(ctx context.Context, id string) (string, models.JobStatus, error) {
	var employerID string
	var status models.JobStatus
	err := s.db.QueryRowContext(ctx, "SELECT employer_id, status FROM jobs WHERE id = ?", id).
		Scan(&employerID, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", "", apperr.NotFound("job not found")
		}
		return "", "", apperr.Upstream("loading job", err)
	}
	return employerID, status, nil
}

// UpdateJob patches descriptive fields. Owner or admin only.
func (s *JobService) UpdateJob(ctx context.Context, claims *auth.Claims, id string, patch JobUpdate) (models.Job, error) {
	employerID, _, err := s.jobOwner(ctx, id)
	if err != nil {
		return models.Job{}, err
	}
	if err := auth.Authorize(claims, employerID); err != nil {
		return models.Job{}, apperr.Forbidden("not authorized to update this job")
	}

	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.SkillsRequired != nil {
		data, _ := json.Marshal(*patch.SkillsRequired)
		add("skills_json", string(data))
	}
	if patch.Salary != nil {
		add("salary", *patch.Salary)
	}
	if patch.Remote != nil {
		add("remote", *patch.Remote)
	}
	if patch.Location != nil {
		add("location", *patch.Location)
	}
	if patch.CompanyName != nil {
		add("company_name", *patch.CompanyName)
	}
	if patch.CompanyLogo != nil {
		add("company_logo", *patch.CompanyLogo)
	}
	if patch.EmploymentType != nil {
		add("employment_type", *patch.EmploymentType)
	}
	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, id)
		if _, err := s.db.ExecContext(ctx, "UPDATE jobs SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return models.Job{}, apperr.Upstream("updating job", err)
		}
	}
	return s.loadJob(ctx, id)
}

// CloseJob sets status Closed. Owner or admin only.
func (s *JobService) CloseJob(ctx context.Context, claims *auth.Claims, id string) (models.Job, error) {
	employerID, _, err := s.jobOwner(ctx, id)
	if err != nil {
		return models.Job{}, err
	}
	if err := auth.Authorize(claims, employerID); err != nil {
		return models.Job{}, apperr.Forbidden("not authorized to close this job")
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?",
		models.JobClosed, time.Now().UTC(), id,
	); err != nil {
		return models.Job{}, apperr.Upstream("closing job", err)
	}
	return s.loadJob(ctx, id)
}

// ApplyToJob records a candidate's application while the job is Open.
// Candidates only; one application per user, enforced by the UNIQUE
// constraint inside a single conditional insert.
func (s *JobService) ApplyToJob(ctx context.Context, claims *auth.Claims, jobID string) (models.Job, error) {
	if claims == nil {
		return models.Job{}, apperr.Unauthenticated("missing credentials")
	}
	if claims.Role != models.RoleCandidate {
		return models.Job{}, apperr.Forbidden("only candidates can apply to jobs")
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO job_applicants (job_id, user_id, applied_at)
		SELECT ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM jobs WHERE id = ? AND status = ?)`,
		jobID, claims.UserID, time.Now().UTC(), jobID, models.JobOpen,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Job{}, apperr.Conflict("you have already applied to this job")
		}
		return models.Job{}, apperr.Upstream("applying to job", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, status, err := s.jobOwner(ctx, jobID)
		if err != nil {
			return models.Job{}, err
		}
		return models.Job{}, apperr.Newf(apperr.KindInvalidState,
			"job is not accepting applications (status %s)", status)
	}

	return s.loadJob(ctx, jobID)
}
