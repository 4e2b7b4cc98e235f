package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrBoardNotFound indicates that board was not found
	ErrBoardNotFound = errors.New("board not found")

	// ErrListNotFound indicates that list was not found
	ErrListNotFound = errors.New("list not found")

	// ErrCardNotFound indicates that card was not found
	ErrCardNotFound = errors.New("card not found")

	// ErrMemberNotFound indicates that user is not a member of the board
	ErrMemberNotFound = errors.New("member not found")

	// ErrMemberAlreadyExists indicates that user is already a member of the board
	ErrMemberAlreadyExists = errors.New("member already exists")

	// ErrNotificationNotFound indicates that notification was not found in the inbox
	ErrNotificationNotFound = errors.New("notification not found")
)
