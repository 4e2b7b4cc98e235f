package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/boardsync/internal/models"
	"github.com/iudanet/boardsync/internal/server/storage"
)

// CreateBoard создает доску и запись владельца в board_members
func (s *Storage) CreateBoard(ctx context.Context, board *models.Board) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO boards (id, title, owner_id, created_at) VALUES (?, ?, ?, ?)`,
			board.ID, board.Title, board.OwnerID, board.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert board: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO board_members (board_id, user_id, role, added_at) VALUES (?, ?, ?, ?)`,
			board.ID, board.OwnerID, models.RoleOwner, board.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert owner membership: %w", err)
		}
		return nil
	})
}

// GetBoard returns board by ID
func (s *Storage) GetBoard(ctx context.Context, boardID string) (*models.Board, error) {
	board := &models.Board{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, owner_id, created_at FROM boards WHERE id = ?`, boardID,
	).Scan(&board.ID, &board.Title, &board.OwnerID, &board.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return board, nil
}

// ListUserBoards returns boards where user is a member
func (s *Storage) ListUserBoards(ctx context.Context, userID string) ([]*models.Board, error) {
	query := `
		SELECT b.id, b.title, b.owner_id, b.created_at
		FROM boards b
		JOIN board_members m ON m.board_id = b.id
		WHERE m.user_id = ?
		ORDER BY b.created_at, b.id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}
	defer rows.Close()

	var boards []*models.Board
	for rows.Next() {
		board := &models.Board{}
		if err := rows.Scan(&board.ID, &board.Title, &board.OwnerID, &board.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, board)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return boards, nil
}

// GetMemberRole returns role of the user on the board
func (s *Storage) GetMemberRole(ctx context.Context, boardID, userID string) (string, error) {
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM board_members WHERE board_id = ? AND user_id = ?`, boardID, userID,
	).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", storage.ErrMemberNotFound
		}
		return "", fmt.Errorf("failed to get member role: %w", err)
	}
	return role, nil
}

const memberColumns = `
	SELECT m.board_id, m.role, m.added_at, u.id, u.username, u.avatar_url
	FROM board_members m
	JOIN users u ON u.id = m.user_id
`

func scanMember(row interface{ Scan(...any) error }) (*models.Member, error) {
	m := &models.Member{}
	err := row.Scan(&m.BoardID, &m.Role, &m.AddedAt, &m.User.UserID, &m.User.Username, &m.User.AvatarURL)
	return m, err
}

// ListMembers returns board members ordered by join time
func (s *Storage) ListMembers(ctx context.Context, boardID string) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		memberColumns+` WHERE m.board_id = ? ORDER BY m.added_at, u.id`, boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return members, nil
}

func (s *Storage) getMember(ctx context.Context, boardID, userID string) (*models.Member, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx,
		memberColumns+` WHERE m.board_id = ? AND m.user_id = ?`, boardID, userID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// AddMember adds user to the board
func (s *Storage) AddMember(ctx context.Context, boardID, userID, role string) (*models.Member, error) {
	if _, err := s.GetBoard(ctx, boardID); err != nil {
		return nil, err
	}
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO board_members (board_id, user_id, role, added_at) VALUES (?, ?, ?, ?)`,
		boardID, userID, role, time.Now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrMemberAlreadyExists
		}
		return nil, fmt.Errorf("failed to insert member: %w", err)
	}

	return s.getMember(ctx, boardID, userID)
}

// UpdateMemberRole changes member role
func (s *Storage) UpdateMemberRole(ctx context.Context, boardID, userID, role string) (*models.Member, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE board_members SET role = ? WHERE board_id = ? AND user_id = ?`, role, boardID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	if err := checkAffected(result, storage.ErrMemberNotFound); err != nil {
		return nil, err
	}

	return s.getMember(ctx, boardID, userID)
}

// RemoveMember removes user from the board
func (s *Storage) RemoveMember(ctx context.Context, boardID, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM board_members WHERE board_id = ? AND user_id = ?`, boardID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	return checkAffected(result, storage.ErrMemberNotFound)
}
