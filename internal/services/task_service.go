package services

import (
	"context"
	"database/sql"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/web3hire/web3hire-be/internal/apperr"
	"github.com/web3hire/web3hire-be/internal/auth"
	"github.com/web3hire/web3hire-be/internal/chain"
	"github.com/web3hire/web3hire-be/internal/models"
)

// CreateTaskInput carries the fields an employer sets on a new task.
type CreateTaskInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Reward      float64            `json:"reward"`
	RewardToken models.RewardToken `json:"rewardToken"`
	Deadline    *time.Time         `json:"deadline"`
}

// TaskUpdate is a partial patch over a task's descriptive fields.
// Status, winner, bidders and deliverables move only through their
// dedicated operations.
type TaskUpdate struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Reward      *float64            `json:"reward"`
	RewardToken *models.RewardToken `json:"rewardToken"`
	Deadline    *time.Time          `json:"deadline"`
}

// BidInput is a candidate's offer on an open task.
type BidInput struct {
	Proposal  string  `json:"proposal"`
	BidAmount float64 `json:"bidAmount"`
}

// DeliverableInput is a unit of work submitted by the winner.
type DeliverableInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	FileURL     string `json:"fileUrl"`
}

// TaskServiceProvider defines the interface for the task workflow.
type TaskServiceProvider interface {
	CreateTask(ctx context.Context, claims *auth.Claims, input CreateTaskInput) (models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	ListTasks(ctx context.Context, status models.TaskStatus) ([]models.Task, error)
	TasksByEmployer(ctx context.Context, employerID string) ([]models.Task, error)
	SearchTasks(ctx context.Context, query string) ([]models.Task, error)
	UpdateTask(ctx context.Context, claims *auth.Claims, id string, patch TaskUpdate) (models.Task, error)
	CancelTask(ctx context.Context, claims *auth.Claims, id string) (models.Task, error)
	BidOnTask(ctx context.Context, claims *auth.Claims, taskID string, input BidInput) (models.Task, error)
	AwardTask(ctx context.Context, claims *auth.Claims, taskID, bidderID string) (models.Task, error)
	SubmitDeliverable(ctx context.Context, claims *auth.Claims, taskID string, input DeliverableInput) (models.Task, error)
	CompleteTask(ctx context.Context, claims *auth.Claims, taskID string) (models.Task, error)
}

// TaskService provides the bidding/award/delivery workflow over the task
// ledger. Every guarded transition is a single conditional statement whose
// WHERE clause carries the precondition, so two racing mutations cannot
// both succeed; RowsAffected==0 is re-diagnosed into the precise error.
type TaskService struct {
	db    *sql.DB
	users UserServiceProvider
	chain *chain.Client
}

// NewTaskService creates a new TaskService. chainClient may be nil.
func NewTaskService(db *sql.DB, users UserServiceProvider, chainClient *chain.Client) *TaskService {
	return &TaskService{db: db, users: users, chain: chainClient}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// toWei converts a token amount to its 18-decimal integer representation
// for the contract mirror.
func toWei(amount float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(amount), big.NewFloat(1e18)).Int(nil)
	return wei
}

const taskColumns = `id, title, description, reward, reward_token, employer_id, deadline,
	status, winner_id, contract_task_id, tx_hash, award_tx_hash, created_at, updated_at`

func scanTask(scanner interface{ Scan(...interface{}) error }) (models.Task, error) {
	var task models.Task
	var deadline sql.NullTime
	var winnerID, txHash, awardTxHash sql.NullString
	var contractTaskID sql.NullInt64

	err := scanner.Scan(
		&task.ID, &task.Title, &task.Description, &task.Reward, &task.RewardToken,
		&task.EmployerID, &deadline, &task.Status, &winnerID, &contractTaskID,
		&txHash, &awardTxHash, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return task, err
	}

	if deadline.Valid {
		t := deadline.Time
		task.Deadline = &t
	}
	if winnerID.Valid {
		id := winnerID.String
		task.WinnerID = &id
	}
	if contractTaskID.Valid {
		n := contractTaskID.Int64
		task.ContractTaskID = &n
	}
	task.TxHash = txHash.String
	task.AwardTxHash = awardTxHash.String
	task.Bidders = []models.Bid{}
	task.Deliverables = []models.Deliverable{}
	return task, nil
}

// taskMeta is the slice of a task the guards need: who owns it, where it
// is in the lifecycle and who (if anyone) won it.
type taskMeta struct {
	employerID string
	status     models.TaskStatus
	winnerID   sql.NullString
}

func (s *TaskService) getTaskMeta(ctx context.Context, id string) (taskMeta, error) {
	var meta taskMeta
	err := s.db.QueryRowContext(ctx,
		"SELECT employer_id, status, winner_id FROM tasks WHERE id = ?", id,
	).Scan(&meta.employerID, &meta.status, &meta.winnerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return meta, apperr.NotFound("task not found")
		}
		return meta, apperr.Upstream("loading task", err)
	}
	return meta, nil
}

// loadTask fetches a task with its bids, deliverables and resolved user
// references. The resolution is a read-side projection; only IDs are
// persisted.
func (s *TaskService) loadTask(ctx context.Context, id string) (models.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Task{}, apperr.NotFound("task not found")
		}
		return models.Task{}, apperr.Upstream("loading task", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, proposal, bid_amount, bid_date FROM task_bids WHERE task_id = ? ORDER BY bid_date, rowid", id)
	if err != nil {
		return models.Task{}, apperr.Upstream("loading bids", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bid models.Bid
		var proposal sql.NullString
		if err := rows.Scan(&bid.UserID, &proposal, &bid.BidAmount, &bid.BidDate); err != nil {
			return models.Task{}, apperr.Upstream("scanning bid", err)
		}
		bid.Proposal = proposal.String
		task.Bidders = append(task.Bidders, bid)
	}
	if err := rows.Err(); err != nil {
		return models.Task{}, apperr.Upstream("loading bids", err)
	}

	drows, err := s.db.QueryContext(ctx,
		"SELECT title, description, file_url, tx_hash, submitted_at FROM task_deliverables WHERE task_id = ? ORDER BY submitted_at, rowid", id)
	if err != nil {
		return models.Task{}, apperr.Upstream("loading deliverables", err)
	}
	defer drows.Close()
	for drows.Next() {
		var d models.Deliverable
		var desc, fileURL, txHash sql.NullString
		if err := drows.Scan(&d.Title, &desc, &fileURL, &txHash, &d.SubmittedAt); err != nil {
			return models.Task{}, apperr.Upstream("scanning deliverable", err)
		}
		d.Description = desc.String
		d.FileURL = fileURL.String
		d.TxHash = txHash.String
		task.Deliverables = append(task.Deliverables, d)
	}
	if err := drows.Err(); err != nil {
		return models.Task{}, apperr.Upstream("loading deliverables", err)
	}

	s.resolveUsers(ctx, &task)
	return task, nil
}

// resolveUsers fills in the Employer, Winner and per-bid User projections.
// A missing user leaves the ID in place with no projection.
func (s *TaskService) resolveUsers(ctx context.Context, task *models.Task) {
	if employer, err := s.users.GetUserByID(ctx, task.EmployerID); err == nil {
		task.Employer = &employer
	}
	if task.WinnerID != nil {
		if winner, err := s.users.GetUserByID(ctx, *task.WinnerID); err == nil {
			task.Winner = &winner
		}
	}
	for i := range task.Bidders {
		if bidder, err := s.users.GetUserByID(ctx, task.Bidders[i].UserID); err == nil {
			task.Bidders[i].User = &bidder
		}
	}
}

// CreateTask opens a new task. Only employers and admins may create.
func (s *TaskService) CreateTask(ctx context.Context, claims *auth.Claims, input CreateTaskInput) (models.Task, error) {
	if err := auth.Authorize(claims, "", models.RoleEmployer); err != nil {
		return models.Task{}, apperr.Forbidden("only employers can create tasks")
	}

	token := input.RewardToken
	if token == "" {
		token = models.TokenUSDT
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, reward, reward_token, employer_id, deadline, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, input.Title, input.Description, input.Reward, token, claims.UserID, input.Deadline, models.TaskOpen, now, now,
	)
	if err != nil {
		return models.Task{}, apperr.Upstream("creating task", err)
	}

	if s.chain != nil {
		txHash, contractID, err := s.chain.CreateTask(ctx, input.Title, toWei(input.Reward))
		if err != nil {
			log.Warn().Err(err).Str("task_id", id).Msg("Chain mirror failed for task creation")
		} else {
			_, _ = s.db.ExecContext(ctx,
				"UPDATE tasks SET tx_hash = ?, contract_task_id = ? WHERE id = ?", txHash, contractID, id)
		}
	}

	return s.loadTask(ctx, id)
}

// GetTask retrieves a single task with its projections.
func (s *TaskService) GetTask(ctx context.Context, id string) (models.Task, error) {
	return s.loadTask(ctx, id)
}

func (s *TaskService) listTasks(ctx context.Context, where string, args ...interface{}) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM tasks "+where, args...)
	if err != nil {
		return nil, apperr.Upstream("listing tasks", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Upstream("scanning task id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Upstream("listing tasks", err)
	}

	tasks := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		task, err := s.loadTask(ctx, id)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// ListTasks returns tasks, optionally filtered by status.
func (s *TaskService) ListTasks(ctx context.Context, status models.TaskStatus) ([]models.Task, error) {
	if status != "" {
		return s.listTasks(ctx, "WHERE status = ? ORDER BY created_at DESC", status)
	}
	return s.listTasks(ctx, "ORDER BY created_at DESC")
}

// TasksByEmployer returns every task owned by the given employer.
func (s *TaskService) TasksByEmployer(ctx context.Context, employerID string) ([]models.Task, error) {
	return s.listTasks(ctx, "WHERE employer_id = ? ORDER BY created_at DESC", employerID)
}

// SearchTasks matches query against title and description, titles first.
func (s *TaskService) SearchTasks(ctx context.Context, query string) ([]models.Task, error) {
	pattern := "%" + query + "%"
	return s.listTasks(ctx, `
		WHERE title LIKE ? OR description LIKE ?
		ORDER BY CASE WHEN title LIKE ? THEN 0 ELSE 1 END, created_at DESC`,
		pattern, pattern, pattern)
}

// UpdateTask patches descriptive fields. Owner or admin only.
func (s *TaskService) UpdateTask(ctx context.Context, claims *auth.Claims, id string, patch TaskUpdate) (models.Task, error) {
	meta, err := s.getTaskMeta(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if err := auth.Authorize(claims, meta.employerID); err != nil {
		return models.Task{}, apperr.Forbidden("not authorized to update this task")
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
	if patch.Reward != nil {
		add("reward", *patch.Reward)
	}
	if patch.RewardToken != nil {
		add("reward_token", *patch.RewardToken)
	}
	if patch.Deadline != nil {
		add("deadline", *patch.Deadline)
	}
	if len(sets) > 0 {
		add("updated_at", time.Now().UTC())
		args = append(args, id)
		if _, err := s.db.ExecContext(ctx, "UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return models.Task{}, apperr.Upstream("updating task", err)
		}
	}
	return s.loadTask(ctx, id)
}

// CancelTask sets status Cancelled. Deliberately unguarded on current
// status: the owner can pull a task at any stage.
func (s *TaskService) CancelTask(ctx context.Context, claims *auth.Claims, id string) (models.Task, error) {
	meta, err := s.getTaskMeta(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if err := auth.Authorize(claims, meta.employerID); err != nil {
		return models.Task{}, apperr.Forbidden("not authorized to cancel this task")
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
		models.TaskCancelled, time.Now().UTC(), id,
	); err != nil {
		return models.Task{}, apperr.Upstream("cancelling task", err)
	}
	return s.loadTask(ctx, id)
}

// BidOnTask appends a bid while the task is Open. One bid per user; the
// append and the status check are a single statement, with the UNIQUE
// constraint turning duplicates into Conflict.
func (s *TaskService) BidOnTask(ctx context.Context, claims *auth.Claims, taskID string, input BidInput) (models.Task, error) {
	if claims == nil {
		return models.Task{}, apperr.Unauthenticated("missing credentials")
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO task_bids (task_id, user_id, proposal, bid_amount, bid_date)
		SELECT ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM tasks WHERE id = ? AND status = ?)`,
		taskID, claims.UserID, input.Proposal, input.BidAmount, now, taskID, models.TaskOpen,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Task{}, apperr.Conflict("you have already bid on this task")
		}
		return models.Task{}, apperr.Upstream("placing bid", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The guard rejected the insert: figure out why.
		meta, err := s.getTaskMeta(ctx, taskID)
		if err != nil {
			return models.Task{}, err
		}
		return models.Task{}, apperr.Newf(apperr.KindInvalidState,
			"task is not open for bidding (status %s)", meta.status)
	}

	_, _ = s.db.ExecContext(ctx, "UPDATE tasks SET updated_at = ? WHERE id = ?", now, taskID)

	if s.chain != nil {
		if contractID, ok := s.contractTaskID(ctx, taskID); ok {
			if _, err := s.chain.BidOnTask(ctx, contractID, toWei(input.BidAmount)); err != nil {
				log.Warn().Err(err).Str("task_id", taskID).Msg("Chain mirror failed for bid")
			}
		}
	}

	return s.loadTask(ctx, taskID)
}

// AwardTask declares a winner from the current bidders and moves the task
// to InProgress. The status check, bidder membership check and the write
// are one conditional update.
func (s *TaskService) AwardTask(ctx context.Context, claims *auth.Claims, taskID, bidderID string) (models.Task, error) {
	meta, err := s.getTaskMeta(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if err := auth.Authorize(claims, meta.employerID); err != nil {
		return models.Task{}, apperr.Forbidden("not authorized to award this task")
	}

	winner, err := s.users.GetUserByID(ctx, bidderID)
	if err != nil {
		return models.Task{}, apperr.NotFound("winner not found")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, winner_id = ?, updated_at = ?
		WHERE id = ? AND status = ?
		AND EXISTS (SELECT 1 FROM task_bids WHERE task_id = ? AND user_id = ?)`,
		models.TaskInProgress, bidderID, time.Now().UTC(), taskID, models.TaskOpen, taskID, bidderID,
	)
	if err != nil {
		return models.Task{}, apperr.Upstream("awarding task", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		meta, err := s.getTaskMeta(ctx, taskID)
		if err != nil {
			return models.Task{}, err
		}
		if meta.status != models.TaskOpen {
			return models.Task{}, apperr.Newf(apperr.KindInvalidState,
				"task cannot be awarded (status %s)", meta.status)
		}
		return models.Task{}, apperr.NotFound("selected bidder has not bid on this task")
	}

	if s.chain != nil && winner.WalletAddress != "" {
		if contractID, ok := s.contractTaskID(ctx, taskID); ok {
			txHash, err := s.chain.AwardTask(ctx, contractID, winner.WalletAddress)
			if err != nil {
				log.Warn().Err(err).Str("task_id", taskID).Msg("Chain mirror failed for award")
			} else {
				_, _ = s.db.ExecContext(ctx, "UPDATE tasks SET award_tx_hash = ? WHERE id = ?", txHash, taskID)
			}
		}
	}

	return s.loadTask(ctx, taskID)
}

// SubmitDeliverable appends work from the declared winner while the task
// is InProgress.
func (s *TaskService) SubmitDeliverable(ctx context.Context, claims *auth.Claims, taskID string, input DeliverableInput) (models.Task, error) {
	if claims == nil {
		return models.Task{}, apperr.Unauthenticated("missing credentials")
	}

	meta, err := s.getTaskMeta(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	// Non-winners are rejected outright, whatever the status.
	if !meta.winnerID.Valid || meta.winnerID.String != claims.UserID {
		return models.Task{}, apperr.Forbidden("only the winner can submit deliverables")
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO task_deliverables (task_id, title, description, file_url, submitted_at)
		SELECT ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM tasks WHERE id = ? AND status = ? AND winner_id = ?)`,
		taskID, input.Title, input.Description, input.FileURL, now, taskID, models.TaskInProgress, claims.UserID,
	)
	if err != nil {
		return models.Task{}, apperr.Upstream("submitting deliverable", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Task{}, apperr.InvalidState("task is not in progress")
	}

	_, _ = s.db.ExecContext(ctx, "UPDATE tasks SET updated_at = ? WHERE id = ?", now, taskID)

	if s.chain != nil && input.FileURL != "" {
		if contractID, ok := s.contractTaskID(ctx, taskID); ok {
			if _, err := s.chain.SubmitDeliverable(ctx, contractID, input.FileURL); err != nil {
				log.Warn().Err(err).Str("task_id", taskID).Msg("Chain mirror failed for deliverable")
			}
		}
	}

	return s.loadTask(ctx, taskID)
}

// CompleteTask closes out an InProgress task. Owner or admin only.
func (s *TaskService) CompleteTask(ctx context.Context, claims *auth.Claims, taskID string) (models.Task, error) {
	meta, err := s.getTaskMeta(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if err := auth.Authorize(claims, meta.employerID); err != nil {
		return models.Task{}, apperr.Forbidden("not authorized to complete this task")
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		models.TaskCompleted, time.Now().UTC(), taskID, models.TaskInProgress,
	)
	if err != nil {
		return models.Task{}, apperr.Upstream("completing task", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Task{}, apperr.Newf(apperr.KindInvalidState,
			"task cannot be completed (status %s)", meta.status)
	}

	if s.chain != nil {
		if contractID, ok := s.contractTaskID(ctx, taskID); ok {
			if _, err := s.chain.CompleteTask(ctx, contractID); err != nil {
				log.Warn().Err(err).Str("task_id", taskID).Msg("Chain mirror failed for completion")
			}
		}
	}

	return s.loadTask(ctx, taskID)
}

func (s *TaskService) contractTaskID(ctx context.Context, taskID string) (int64, bool) {
	var contractID sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		"SELECT contract_task_id FROM tasks WHERE id = ?", taskID).Scan(&contractID); err != nil {
		return 0, false
	}
	return contractID.Int64, contractID.Valid
}
