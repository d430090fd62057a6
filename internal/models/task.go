package models

import "time"

// TaskStatus is the lifecycle state of a task.
//
// Legal transitions: Open -> InProgress -> Completed, and Open -> Cancelled.
// The cancel operation itself is deliberately unguarded (an employer can
// pull a task at any stage), but bids, awards and deliverables are each
// gated on the exact status they require.
type TaskStatus string

const (
	TaskOpen       TaskStatus = "Open"
	TaskInProgress TaskStatus = "InProgress"
	TaskCompleted  TaskStatus = "Completed"
	TaskCancelled  TaskStatus = "Cancelled"
)

// RewardToken is the currency a task pays out in.
type RewardToken string

const (
	TokenUSDT  RewardToken = "USDT"
	TokenETH   RewardToken = "ETH"
	TokenMATIC RewardToken = "MATIC"
)

// Bid is one entry in a task's bidders list. User is a read-side
// projection filled in after the fact; UserID is what is persisted.
type Bid struct {
	UserID    string    `json:"userId"`
	User      *User     `json:"user,omitempty"`
	Proposal  string    `json:"proposal"`
	BidAmount float64   `json:"bidAmount"`
	BidDate   time.Time `json:"bidDate"`
}

// Deliverable is a unit of work submitted by a task's winner.
type Deliverable struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FileURL     string    `json:"fileUrl,omitempty"`
	TxHash      string    `json:"txHash,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Task is a unit of paid work with a bidding workflow.
type Task struct {
	ID             string        `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Reward         float64       `json:"reward"`
	RewardToken    RewardToken   `json:"rewardToken"`
	EmployerID     string        `json:"employerId"`
	Employer       *User         `json:"employer,omitempty"`
	Deadline       *time.Time    `json:"deadline,omitempty"`
	Status         TaskStatus    `json:"status"`
	Bidders        []Bid         `json:"bidders"`
	WinnerID       *string       `json:"winnerId,omitempty"`
	Winner         *User         `json:"winner,omitempty"`
	ContractTaskID *int64        `json:"contractTaskId,omitempty"`
	TxHash         string        `json:"txHash,omitempty"`
	AwardTxHash    string        `json:"awardTxHash,omitempty"`
	Deliverables   []Deliverable `json:"deliverables"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

// HasBidder reports whether userID already appears in the bidders list.
func (t *Task) HasBidder(userID string) bool {
	for _, b := range t.Bidders {
		if b.UserID == userID {
			return true
		}
	}
	return false
}
