package file

import "errors"

var (
	ErrNotFound     = errors.New("file not found")
	ErrInvalidSize  = errors.New("declared size must be positive")
	ErrNotUploaded  = errors.New("file upload has not completed")
	ErrNotDeleted   = errors.New("file is not in the trash")
	ErrPathOccupied = errors.New("a file already exists at the restore path")
)
