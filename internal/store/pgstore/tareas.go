package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deppfellow/tareas/internal/model"
	"github.com/deppfellow/tareas/internal/sqlerr"
	"github.com/deppfellow/tareas/internal/store"
)

// document is the JSONB body stored per row.
type document struct {
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Date        *time.Time `json:"date,omitempty"`
}

const selectColumns = `id, document, created_at`

func scanTarea(row pgx.Row) (*model.Tarea, error) {
	var (
		id        string
		raw       []byte
		createdAt time.Time
	)
	if err := row.Scan(&id, &raw, &createdAt); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding tarea %s: %w", id, err)
	}

	tarea := &model.Tarea{
		ID:          id,
		Description: doc.Description,
		Status:      model.Status(doc.Status),
		CreatedAt:   createdAt.UTC(),
	}
	if doc.Date != nil {
		date := doc.Date.UTC()
		tarea.Date = &date
	}
	return tarea, nil
}

func (s *Store) Save(ctx context.Context, tarea *model.Tarea) error {
	body, err := json.Marshal(document{
		Description: tarea.Description,
		Status:      string(tarea.Status),
		Date:        tarea.Date,
	})
	if err != nil {
		return fmt.Errorf("encoding tarea: %w", err)
	}

	id := model.NewID()
	var createdAt time.Time
	err = s.pool.QueryRow(ctx,
		`INSERT INTO tareas (id, document) VALUES ($1, $2::jsonb) RETURNING created_at`,
		id, string(body),
	).Scan(&createdAt)
	if err != nil {
		return sqlerr.Wrap(err, "insert tarea")
	}

	tarea.ID = id
	tarea.CreatedAt = createdAt.UTC()
	return nil
}

func (s *Store) FindAll(ctx context.Context) ([]model.Tarea, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+selectColumns+` FROM tareas ORDER BY seq`)
	if err != nil {
		return nil, sqlerr.Wrap(err, "query tareas")
	}
	defer rows.Close()

	tareas := make([]model.Tarea, 0)
	for rows.Next() {
		tarea, err := scanTarea(rows)
		if err != nil {
			return nil, sqlerr.Wrap(err, "scan tarea")
		}
		tareas = append(tareas, *tarea)
	}
	if err := rows.Err(); err != nil {
		return nil, sqlerr.Wrap(err, "iterate tareas")
	}

	return tareas, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*model.Tarea, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM tareas WHERE id = $1`, id)
	return s.one(row)
}

func (s *Store) Latest(ctx context.Context) (*model.Tarea, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM tareas ORDER BY seq DESC LIMIT 1`)
	return s.one(row)
}

func (s *Store) one(row pgx.Row) (*model.Tarea, error) {
	tarea, err := scanTarea(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNoDocument
	}
	if err != nil {
		return nil, sqlerr.Wrap(err, "read tarea")
	}
	return tarea, nil
}

// UpdateOne merges the supplied fields into the stored document.
func (s *Store) UpdateOne(ctx context.Context, id string, update store.Update) (bool, error) {
	patch := map[string]any{"date": update.Date.UTC()}
	if update.Description != nil {
		patch["description"] = *update.Description
	}
	if update.Status != nil {
		patch["status"] = string(*update.Status)
	}

	body, err := json.Marshal(patch)
	if err != nil {
		return false, fmt.Errorf("encoding update: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE tareas SET document = document || $2::jsonb WHERE id = $1`,
		id, string(body),
	)
	if err != nil {
		return false, sqlerr.Wrap(err, "update tarea")
	}

	return tag.RowsAffected() > 0, nil
}

func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tareas WHERE id = $1`, id)
	if err != nil {
		return false, sqlerr.Wrap(err, "delete tarea")
	}

	return tag.RowsAffected() > 0, nil
}
