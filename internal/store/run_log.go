package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// 运行状态
const (
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// ErrRunNotFound 运行记录不存在
var ErrRunNotFound = errors.New("run log not found")

// RunFiles 一次运行的四个输入文件名
type RunFiles struct {
	Sales         string `json:"sales"`
	ProductMaster string `json:"productMaster"`
	Inventory     string `json:"inventory"`
	Returns       string `json:"returns"`
}

// RunCounts 各结果表行数
type RunCounts struct {
	Sales      int `json:"sales"`
	SalesPivot int `json:"salesPivot"`
	Inventory  int `json:"inventory"`
	Returns    int `json:"returns"`
	Reconciled int `json:"reconciled"`
}

// RunLog 运行记录
type RunLog struct {
	ID           string     `json:"id"`
	Files        RunFiles   `json:"files"`
	Status       string     `json:"status"`
	Stage        string     `json:"stage,omitempty"`
	Counts       RunCounts  `json:"counts"`
	WarningCount int        `json:"warningCount"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	StartedAt    time.Time  `json:"startedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// CreateRunLog 创建运行中状态的记录
func (s *Store) CreateRunLog(ctx context.Context, id string, files RunFiles) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_logs (id, sales_file, product_master_file, inventory_file, returns_file, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, files.Sales, files.ProductMaster, files.Inventory, files.Returns, RunStatusRunning, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to create run log: %w", err)
	}
	return nil
}

// CompleteRunLog 标记运行成功并写入行数统计
func (s *Store) CompleteRunLog(ctx context.Context, id string, counts RunCounts, warnings int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE run_logs SET
			status = ?,
			sales_rows = ?,
			pivot_rows = ?,
			inventory_rows = ?,
			returns_rows = ?,
			reconciled_rows = ?,
			warning_count = ?,
			completed_at = ?
		WHERE id = ?
	`, RunStatusDone, counts.Sales, counts.SalesPivot, counts.Inventory, counts.Returns, counts.Reconciled, warnings, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to complete run log: %w", err)
	}
	return expectOneRow(res)
}

// FailRunLog 标记运行失败
func (s *Store) FailRunLog(ctx context.Context, id, stage, message string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE run_logs SET status = ?, stage = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`, RunStatusFailed, stage, message, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark run log failed: %w", err)
	}
	return expectOneRow(res)
}

// GetRunLog 按 ID 查询运行记录
func (s *Store) GetRunLog(ctx context.Context, id string) (*RunLog, error) {
	row := s.db.QueryRowContext(ctx, selectRunLog+` WHERE id = ?`, id)
	log, err := scanRunLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return log, err
}

// ListRunLogs 最近的运行记录，按开始时间倒序
func (s *Store) ListRunLogs(ctx context.Context, limit int) ([]RunLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, selectRunLog+` ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list run logs: %w", err)
	}
	defer rows.Close()

	var out []RunLog
	for rows.Next() {
		log, err := scanRunLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *log)
	}
	return out, rows.Err()
}

const selectRunLog = `
	SELECT id, sales_file, product_master_file, inventory_file, returns_file,
		status, stage, sales_rows, pivot_rows, inventory_rows, returns_rows, reconciled_rows,
		warning_count, error_message, started_at, completed_at
	FROM run_logs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunLog(sc rowScanner) (*RunLog, error) {
	var (
		log       RunLog
		completed sql.NullTime
	)
	err := sc.Scan(
		&log.ID, &log.Files.Sales, &log.Files.ProductMaster, &log.Files.Inventory, &log.Files.Returns,
		&log.Status, &log.Stage,
		&log.Counts.Sales, &log.Counts.SalesPivot, &log.Counts.Inventory, &log.Counts.Returns, &log.Counts.Reconciled,
		&log.WarningCount, &log.ErrorMessage, &log.StartedAt, &completed,
	)
	if err != nil {
		return nil, err
	}
	if completed.Valid {
		t := completed.Time
		log.CompletedAt = &t
	}
	return &log, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}
