package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CodeRepo provides methods for code (tagged text span) operations.
type CodeRepo struct {
	db DBTX
}

// NewCodeRepo creates a new CodeRepo.
func NewCodeRepo(db DBTX) *CodeRepo {
	return &CodeRepo{db: db}
}

// Create inserts a new code, minting an id when unset.
func (r *CodeRepo) Create(ctx context.Context, c *Code) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.StartOffset < 0 || c.EndOffset < c.StartOffset {
		return fmt.Errorf("invalid code span [%d, %d]", c.StartOffset, c.EndOffset)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO codes (id, file_id, code_name, text, start_offset, end_offset,
			position_x, position_y, size_width, size_height)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.FileID, c.CodeName, c.Text, c.StartOffset, c.EndOffset,
		c.Position.X, c.Position.Y, c.Size.Width, c.Size.Height,
	)
	if err != nil {
		return fmt.Errorf("failed to insert code: %w", err)
	}
	return nil
}

// ListByProject returns all codes of a project, joined through files, in
// creation order.
func (r *CodeRepo) ListByProject(ctx context.Context, projectID string) ([]Code, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.file_id, c.code_name, c.text, c.start_offset, c.end_offset,
			c.position_x, c.position_y, c.size_width, c.size_height, c.created_at
		 FROM codes c
		 JOIN files f ON f.id = c.file_id
		 WHERE f.project_id = ?
		 ORDER BY c.created_at, c.rowid`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query codes: %w", err)
	}
	defer rows.Close()

	var codes []Code
	for rows.Next() {
		var (
			c         Code
			createdAt string
		)
		if err := rows.Scan(&c.ID, &c.FileID, &c.CodeName, &c.Text, &c.StartOffset, &c.EndOffset,
			&c.Position.X, &c.Position.Y, &c.Size.Width, &c.Size.Height, &createdAt); err != nil {
			return nil, err
		}
		if c.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}
