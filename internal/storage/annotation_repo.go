package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// AnnotationRepo provides methods for canvas annotation operations.
type AnnotationRepo struct {
	db DBTX
}

// NewAnnotationRepo creates a new AnnotationRepo.
func NewAnnotationRepo(db DBTX) *AnnotationRepo {
	return &AnnotationRepo{db: db}
}

// Create inserts a new annotation, minting an id when unset.
func (r *AnnotationRepo) Create(ctx context.Context, a *Annotation) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO annotations (id, project_id, content,
			position_x, position_y, size_width, size_height, style_color)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.ProjectID, a.Content,
		a.Position.X, a.Position.Y, a.Size.Width, a.Size.Height, a.Style.Color,
	)
	if err != nil {
		return fmt.Errorf("failed to insert annotation: %w", err)
	}
	return nil
}

// ListByProject returns all annotations of a project in creation order.
func (r *AnnotationRepo) ListByProject(ctx context.Context, projectID string) ([]Annotation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, content,
			position_x, position_y, size_width, size_height, style_color, created_at
		 FROM annotations WHERE project_id = ? ORDER BY created_at, rowid`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	var annotations []Annotation
	for rows.Next() {
		var (
			a         Annotation
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.Content,
			&a.Position.X, &a.Position.Y, &a.Size.Width, &a.Size.Height,
			&a.Style.Color, &createdAt); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		annotations = append(annotations, a)
	}
	return annotations, rows.Err()
}
