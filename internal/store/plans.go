// plans.go implements plan and plan step persistence.
//
// A chat has at most one active plan. CreatePlan cancels the previous one
// in the same transaction that inserts the new plan.

package store

import (
	"context"
	"database/sql"
	"fmt"
)

const planColumns = `id, chat_id, user_id, title, status, created_at, updated_at`

// CreatePlan cancels the chat's active plan, if any, and inserts p.
func (s *SQLStore) CreatePlan(ctx context.Context, p *Plan) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`UPDATE plans SET status = ?, updated_at = ?
			WHERE chat_id = ? AND user_id = ? AND status = ?`),
			string(PlanCancelled), p.CreatedAt, p.ChatID, p.UserID, string(PlanActive))
		if err != nil {
			return fmt.Errorf("cancel active plan: %w", err)
		}

		_, err = tx.ExecContext(ctx, s.q(`INSERT INTO plans (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
			p.ID, p.ChatID, p.UserID, p.Title, string(p.Status), p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
		return s.insertSteps(ctx, tx, p.ID, p.Steps)
	})
}

func (s *SQLStore) insertSteps(ctx context.Context, tx *sql.Tx, planID string, steps []PlanStep) error {
	for _, st := range steps {
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO plan_steps (id, plan_id, position, title, description, status)
			VALUES (?, ?, ?, ?, ?, ?)`),
			st.ID, planID, st.Position, st.Title, st.Description, string(st.Status))
		if err != nil {
			return fmt.Errorf("insert plan step %d: %w", st.Position, err)
		}
	}
	return nil
}

// Plan returns a plan and its steps if userID owns it.
func (s *SQLStore) Plan(ctx context.Context, id, userID string) (*Plan, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+planColumns+` FROM plans WHERE id = ? AND user_id = ?`), id, userID)
	return s.loadPlan(ctx, row)
}

// ActivePlan returns the chat's active plan.
func (s *SQLStore) ActivePlan(ctx context.Context, chatID, userID string) (*Plan, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+planColumns+` FROM plans
		WHERE chat_id = ? AND user_id = ? AND status = ?
		ORDER BY created_at DESC LIMIT 1`), chatID, userID, string(PlanActive))
	return s.loadPlan(ctx, row)
}

func (s *SQLStore) loadPlan(ctx context.Context, row *sql.Row) (*Plan, error) {
	var p Plan
	var status string
	if err := row.Scan(&p.ID, &p.ChatID, &p.UserID, &p.Title, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, notFound(err, "scan plan")
	}
	p.Status = PlanStatus(status)

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT id, plan_id, position, title, description, status
		FROM plan_steps WHERE plan_id = ? ORDER BY position`), p.ID)
	if err != nil {
		return nil, fmt.Errorf("list plan steps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st PlanStep
		var stStatus string
		if err := rows.Scan(&st.ID, &st.PlanID, &st.Position, &st.Title, &st.Description, &stStatus); err != nil {
			return nil, fmt.Errorf("scan plan step: %w", err)
		}
		st.Status = StepStatus(stStatus)
		p.Steps = append(p.Steps, st)
	}
	return &p, rows.Err()
}

// ReplaceSteps deletes a plan's steps and inserts the new list in one
// transaction.
func (s *SQLStore) ReplaceSteps(ctx context.Context, planID, userID string, steps []PlanStep, updatedAt int64) error {
	return s.Tx(ctx, func(tx *sql.Tx) error {
		if err := s.touchPlan(ctx, tx, planID, userID, updatedAt); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM plan_steps WHERE plan_id = ?`), planID); err != nil {
			return fmt.Errorf("delete plan steps: %w", err)
		}
		return s.insertSteps(ctx, tx, planID, steps)
	})
}

// SetPlanStatus updates a plan's status.
func (s *SQLStore) SetPlanStatus(ctx context.Context, planID, userID string, status PlanStatus, updatedAt int64) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE plans SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`),
		string(status), updatedAt, planID, userID)
	if err != nil {
		return fmt.Errorf("set plan status: %w", err)
	}
	return requireRow(res)
}

func (s *SQLStore) touchPlan(ctx context.Context, tx *sql.Tx, planID, userID string, updatedAt int64) error {
	res, err := tx.ExecContext(ctx, s.q(`UPDATE plans SET updated_at = ? WHERE id = ? AND user_id = ?`),
		updatedAt, planID, userID)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return requireRow(res)
}

// requireRow returns ErrNotFound when an update matched nothing.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
