package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"qualweave/internal/codec"
)

// InsightRepo provides methods for insight operations. Theme id lists are
// soft references, same as ThemeRepo's code id lists.
type InsightRepo struct {
	db DBTX
}

// NewInsightRepo creates a new InsightRepo.
func NewInsightRepo(db DBTX) *InsightRepo {
	return &InsightRepo{db: db}
}

// Create inserts a new insight, minting an id when unset.
func (r *InsightRepo) Create(ctx context.Context, in *Insight) error {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO insights (id, project_id, name, theme_ids,
			position_x, position_y, size_width, size_height, style_color, expanded)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.ProjectID, in.Name, codec.JoinIDs(in.ThemeIDs),
		in.Position.X, in.Position.Y, in.Size.Width, in.Size.Height, in.Style.Color, in.Expanded,
	)
	if err != nil {
		return fmt.Errorf("failed to insert insight: %w", err)
	}
	return nil
}

// ListByProject returns all insights of a project in creation order.
func (r *InsightRepo) ListByProject(ctx context.Context, projectID string) ([]Insight, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, name, theme_ids,
			position_x, position_y, size_width, size_height, style_color, expanded, created_at
		 FROM insights WHERE project_id = ? ORDER BY created_at, rowid`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	var insights []Insight
	for rows.Next() {
		var (
			in        Insight
			themeIDs  string
			createdAt string
		)
		if err := rows.Scan(&in.ID, &in.ProjectID, &in.Name, &themeIDs,
			&in.Position.X, &in.Position.Y, &in.Size.Width, &in.Size.Height,
			&in.Style.Color, &in.Expanded, &createdAt); err != nil {
			return nil, err
		}
		in.ThemeIDs = codec.SplitIDs(themeIDs)
		if in.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		insights = append(insights, in)
	}
	return insights, rows.Err()
}
