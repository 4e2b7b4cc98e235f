package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/ordering"
	"github.com/iudanet/boardsync/internal/server/storage"
)

// CreateList creates a new list
func (s *Storage) CreateList(ctx context.Context, list *models.List) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lists (id, board_id, title, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, list.ID, list.BoardID, list.Title, list.Position, list.CreatedAt, list.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert list: %w", err)
	}
	return nil
}

// GetList returns list by ID
func (s *Storage) GetList(ctx context.Context, listID string) (*models.List, error) {
	list := &models.List{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, board_id, title, position, created_at, updated_at
		FROM lists WHERE id = ?
	`, listID).Scan(&list.ID, &list.BoardID, &list.Title, &list.Position, &list.CreatedAt, &list.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrListNotFound
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return list, nil
}

// UpdateList updates list title
func (s *Storage) UpdateList(ctx context.Context, list *models.List) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE lists SET title = ?, updated_at = ? WHERE id = ?`,
		list.Title, list.UpdatedAt, list.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	return checkAffected(result, storage.ErrListNotFound)
}

// DeleteList deletes list, cards are removed by cascade
func (s *Storage) DeleteList(ctx context.Context, listID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, listID)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return checkAffected(result, storage.ErrListNotFound)
}

// ListLists returns board lists in display order
func (s *Storage) ListLists(ctx context.Context, boardID string) ([]*models.List, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, board_id, title, position, created_at, updated_at
		FROM lists WHERE board_id = ?
		ORDER BY position, id
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	defer rows.Close()

	var lists []*models.List
	for rows.Next() {
		list := &models.List{}
		if err := rows.Scan(&list.ID, &list.BoardID, &list.Title, &list.Position, &list.CreatedAt, &list.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, list)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return lists, nil
}

// UpdateListPositions rewrites positions of board lists in one transaction
func (s *Storage) UpdateListPositions(ctx context.Context, boardID string, placements []ordering.Placement) error {
	now := time.Now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return updatePositions(ctx, tx,
			`UPDATE lists SET position = ?, updated_at = ? WHERE id = ? AND board_id = ?`,
			boardID, now, placements, storage.ErrListNotFound)
	})
}

// updatePositions применяет placements запросом вида
// UPDATE ... SET position = ?, updated_at = ? WHERE id = ? AND <parent> = ?
func updatePositions(ctx context.Context, tx *sql.Tx, query, parentID string, now time.Time, placements []ordering.Placement, notFound error) error {
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range placements {
		result, err := stmt.ExecContext(ctx, p.Position, now, p.ID, parentID)
		if err != nil {
			return fmt.Errorf("failed to update position of %s: %w", p.ID, err)
		}
		if err := checkAffected(result, notFound); err != nil {
			return fmt.Errorf("%s: %w", p.ID, err)
		}
	}
	return nil
}
