package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"qualweave/internal/codec"
)

// ThemeRepo provides methods for theme operations. Theme code id lists are
// persisted as semicolon-joined text; they are soft references with no
// foreign key, so entries may dangle and readers must tolerate that.
type ThemeRepo struct {
	db DBTX
}

// NewThemeRepo creates a new ThemeRepo.
func NewThemeRepo(db DBTX) *ThemeRepo {
	return &ThemeRepo{db: db}
}

// Create inserts a new theme, minting an id when unset.
func (r *ThemeRepo) Create(ctx context.Context, t *Theme) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO themes (id, project_id, name, code_ids,
			position_x, position_y, size_width, size_height, style_color)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Name, codec.JoinIDs(t.CodeIDs),
		t.Position.X, t.Position.Y, t.Size.Width, t.Size.Height, t.Style.Color,
	)
	if err != nil {
		return fmt.Errorf("failed to insert theme: %w", err)
	}
	return nil
}

// ListByProject returns all themes of a project in creation order.
func (r *ThemeRepo) ListByProject(ctx context.Context, projectID string) ([]Theme, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, project_id, name, code_ids,
			position_x, position_y, size_width, size_height, style_color, created_at
		 FROM themes WHERE project_id = ? ORDER BY created_at, rowid`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query themes: %w", err)
	}
	defer rows.Close()

	var themes []Theme
	for rows.Next() {
		var (
			t         Theme
			codeIDs   string
			createdAt string
		)
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &codeIDs,
			&t.Position.X, &t.Position.Y, &t.Size.Width, &t.Size.Height, &t.Style.Color, &createdAt); err != nil {
			return nil, err
		}
		t.CodeIDs = codec.SplitIDs(codeIDs)
		if t.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}
