package folder

import "errors"

var (
	ErrNotFound       = errors.New("folder not found")
	ErrInvalidName    = errors.New("folder name is empty or contains a path separator")
	ErrNameTaken      = errors.New("a folder with this name already exists here")
	ErrFolderNotEmpty = errors.New("folder still contains subfolders or files")
	ErrInvalidParent  = errors.New("target parent folder is invalid")
	ErrInvalidPath    = errors.New("path segment is empty or contains a separator")
	ErrPathExists     = errors.New("a file already exists at this path")
)
