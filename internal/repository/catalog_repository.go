package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/escape-room-booking/internal/model"
)

// CatalogRepo reads scenarios and chapters.  The catalog is maintained by
// a separate back office, so only lookups live here.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

func (r *CatalogRepo) GetScenario(ctx context.Context, q querier, id string) (*model.Scenario, error) {
	var sc model.Scenario
	err := q.QueryRowContext(ctx, `SELECT id, name, category FROM scenarios WHERE id = ?`, id).
		Scan(&sc.ID, &sc.Name, &sc.Category)
	if err != nil {
		return nil, notFound(err)
	}
	return &sc, nil
}

func (r *CatalogRepo) GetChapter(ctx context.Context, q querier, id string) (*model.Chapter, error) {
	var ch model.Chapter
	err := q.QueryRowContext(ctx, `SELECT id, scenario_id, name FROM chapters WHERE id = ?`, id).
		Scan(&ch.ID, &ch.ScenarioID, &ch.Name)
	if err != nil {
		return nil, notFound(err)
	}
	return &ch, nil
}

// SiblingChapterIDs lists the other chapters of scenarioID.
func (r *CatalogRepo) SiblingChapterIDs(ctx context.Context, q querier, scenarioID, chapterID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM chapters WHERE scenario_id = ? AND id <> ? ORDER BY id`, scenarioID, chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
