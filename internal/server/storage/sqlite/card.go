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

const cardColumns = `
	SELECT id, list_id, board_id, title, description, position, due_date, created_at, updated_at
	FROM cards
`

func scanCard(row interface{ Scan(...any) error }) (*models.Card, error) {
	card := &models.Card{}
	var due sql.NullTime

	err := row.Scan(
		&card.ID,
		&card.ListID,
		&card.BoardID,
		&card.Title,
		&card.Description,
		&card.Position,
		&due,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if due.Valid {
		card.DueDate = &due.Time
	}
	return card, nil
}

// CreateCard creates a new card
func (s *Storage) CreateCard(ctx context.Context, card *models.Card) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (id, list_id, board_id, title, description, position, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID,
		card.ListID,
		card.BoardID,
		card.Title,
		card.Description,
		card.Position,
		card.DueDate,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card: %w", err)
	}
	return nil
}

// GetCard returns card by ID
func (s *Storage) GetCard(ctx context.Context, cardID string) (*models.Card, error) {
	card, err := scanCard(s.db.QueryRowContext(ctx, cardColumns+` WHERE id = ?`, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return card, nil
}

// UpdateCard updates editable card fields
func (s *Storage) UpdateCard(ctx context.Context, card *models.Card) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET title = ?, description = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`, card.Title, card.Description, card.DueDate, card.UpdatedAt, card.ID)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return checkAffected(result, storage.ErrCardNotFound)
}

// DeleteCard deletes card with its comments
func (s *Storage) DeleteCard(ctx context.Context, cardID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, cardID)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return checkAffected(result, storage.ErrCardNotFound)
}

// ListCards returns list cards in display order
func (s *Storage) ListCards(ctx context.Context, listID string) ([]*models.Card, error) {
	rows, err := s.db.QueryContext(ctx, cardColumns+` WHERE list_id = ? ORDER BY position, id`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return cards, nil
}

// MoveCard moves card to another list (or within the same list)
func (s *Storage) MoveCard(ctx context.Context, cardID, toListID string, position float64, placements []ordering.Placement) error {
	now := time.Now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE cards SET list_id = ?, position = ?, updated_at = ? WHERE id = ?`,
			toListID, position, now, cardID,
		)
		if err != nil {
			return fmt.Errorf("failed to move card: %w", err)
		}
		if err := checkAffected(result, storage.ErrCardNotFound); err != nil {
			return err
		}

		// placements могут включать саму карточку, поэтому после переноса
		return updatePositions(ctx, tx,
			`UPDATE cards SET position = ?, updated_at = ? WHERE id = ? AND list_id = ?`,
			toListID, now, placements, storage.ErrCardNotFound)
	})
}

// UpdateCardPositions rewrites positions of list cards in one transaction
func (s *Storage) UpdateCardPositions(ctx context.Context, listID string, placements []ordering.Placement) error {
	now := time.Now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return updatePositions(ctx, tx,
			`UPDATE cards SET position = ?, updated_at = ? WHERE id = ? AND list_id = ?`,
			listID, now, placements, storage.ErrCardNotFound)
	})
}

// AddComment stores a comment
func (s *Storage) AddComment(ctx context.Context, comment *models.Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, card_id, board_id, author_id, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, comment.ID, comment.CardID, comment.BoardID, comment.Author.UserID, comment.Text, comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

// ListComments returns card comments with author profiles
func (s *Storage) ListComments(ctx context.Context, cardID string) ([]*models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.card_id, c.board_id, c.text, c.created_at, u.id, u.username, u.avatar_url
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.card_id = ?
		ORDER BY c.created_at, c.id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c := &models.Comment{}
		err := rows.Scan(&c.ID, &c.CardID, &c.BoardID, &c.Text, &c.CreatedAt,
			&c.Author.UserID, &c.Author.Username, &c.Author.AvatarURL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return comments, nil
}
