package models

import "time"

// JobStatus is the lifecycle state of a job posting.
type JobStatus string

const (
	JobOpen   JobStatus = "Open"
	JobClosed JobStatus = "Closed"
	JobFilled JobStatus = "Filled"
	JobDraft  JobStatus = "Draft"
)

// EmploymentType categorizes a job posting.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "Full-time"
	EmploymentPartTime   EmploymentType = "Part-time"
	EmploymentContract   EmploymentType = "Contract"
	EmploymentFreelance  EmploymentType = "Freelance"
	EmploymentInternship EmploymentType = "Internship"
)

// Job is a conventional posting with an applicant list. It shares the
// ownership rules of Task but has no bidding or award sub-workflow.
type Job struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	SkillsRequired []string       `json:"skillsRequired"`
	Salary         string         `json:"salary"`
	Remote         bool           `json:"remote"`
	Location       string         `json:"location,omitempty"`
	EmployerID     string         `json:"employerId"`
	Employer       *User          `json:"employer,omitempty"`
	CompanyName    string         `json:"companyName,omitempty"`
	CompanyLogo    string         `json:"companyLogo,omitempty"`
	EmploymentType EmploymentType `json:"employmentType"`
	Status         JobStatus      `json:"status"`
	ApplicantIDs   []string       `json:"applicantIds"`
	Applicants     []User         `json:"applicants,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}
