package models

import "time"

// Role determines which marketplace operations a user may perform.
type Role string

const (
	RoleEmployer  Role = "Employer"
	RoleCandidate Role = "Candidate"
	RoleAdmin     Role = "Admin"
)

// SocialLinks holds a user's optional public profiles.
type SocialLinks struct {
	Github   string `json:"github,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Linkedin string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Preferences capture what a candidate is looking for; consulted only by
// the matching scorer.
type Preferences struct {
	JobType string `json:"jobType,omitempty"`
	Remote  *bool  `json:"remote,omitempty"`
}

// User represents an account in the marketplace. Every account is
// wallet-first; the seeded admin only differs in role.
type User struct {
	ID             string      `json:"id"`
	WalletAddress  string      `json:"walletAddress,omitempty"`
	Email          string      `json:"email,omitempty"`
	Role           Role        `json:"role"`
	Name           string      `json:"name,omitempty"`
	Skills         []string    `json:"skills,omitempty"`
	Bio            string      `json:"bio,omitempty"`
	ResumeIpfsHash string      `json:"resumeIpfsHash,omitempty"`
	ProfileImage   string      `json:"profileImage,omitempty"`
	SocialLinks    SocialLinks `json:"socialLinks"`
	Preferences    Preferences `json:"preferences"`
	Nonce          string      `json:"-"` // Never expose the active challenge
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// HasAnySocialLink reports whether at least one social profile is set.
func (s SocialLinks) HasAnySocialLink() bool {
	return s.Github != "" || s.Twitter != "" || s.Linkedin != "" || s.Website != ""
}
