package share

import (
	"context"
	"errors"
	"time"

	filedomain "cloudvault/internal/domain/file"
	folderdomain "cloudvault/internal/domain/folder"
)

// FileView is the shape of a shared file as a link visitor sees it.
type FileView struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FolderView is the shape of a shared folder as a link visitor sees it.
type FolderView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LinkView is the public metadata of a link plus its resolved targets.
// Targets that no longer exist are silently omitted.
type LinkView struct {
	Token            string       `json:"token"`
	ExpiresAt        *time.Time   `json:"expires_at,omitempty"`
	PasswordRequired bool         `json:"password_required"`
	Files            []FileView   `json:"files"`
	Folders          []FolderView `json:"folders"`
}

// View resolves the link's targets against current file and folder state.
func (s *Service) View(ctx context.Context, link *ShareLink) (*LinkView, error) {
	view := &LinkView{
		Token:            link.Token,
		ExpiresAt:        link.ExpiresAt,
		PasswordRequired: link.RequiresPassword(),
		Files:            []FileView{},
		Folders:          []FolderView{},
	}

	fileIDs, err := s.repo.FileIDs(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range fileIDs {
		f, err := s.files.FindAnyActiveByID(ctx, id)
		if err != nil {
			if errors.Is(err, filedomain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if f.OwnerID != link.OwnerID || f.Status != filedomain.StatusUploaded {
			continue
		}
		view.Files = append(view.Files, fileView(f))
	}

	folderIDs, err := s.repo.FolderIDs(ctx, link.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range folderIDs {
		fo, err := s.folders.GetAnyByID(ctx, id)
		if err != nil {
			if errors.Is(err, folderdomain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if fo.OwnerID != link.OwnerID {
			continue
		}
		view.Folders = append(view.Folders, FolderView{ID: fo.ID, Name: fo.Name})
	}
	return view, nil
}

// FolderListing is the content of one shared folder.
type FolderListing struct {
	Folder  FolderView   `json:"folder"`
	Files   []FileView   `json:"files"`
	Folders []FolderView `json:"folders"`
}

// Browse lists the contents of a folder reachable through the link. The
// caller must have checked the folder with CanAccessFolder first.
func (s *Service) Browse(ctx context.Context, link *ShareLink, folderID string) (*FolderListing, error) {
	fo, err := s.folders.GetByID(ctx, link.OwnerID, folderID)
	if err != nil {
		return nil, err
	}

	listing := &FolderListing{
		Folder:  FolderView{ID: fo.ID, Name: fo.Name},
		Files:   []FileView{},
		Folders: []FolderView{},
	}

	files, err := s.files.ListActiveByFolder(ctx, link.OwnerID, &fo.ID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.Status != filedomain.StatusUploaded {
			continue
		}
		listing.Files = append(listing.Files, fileView(f))
	}

	children, err := s.folders.ListChildren(ctx, link.OwnerID, &fo.ID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		listing.Folders = append(listing.Folders, FolderView{ID: child.ID, Name: child.Name})
	}
	return listing, nil
}

func fileView(f *filedomain.CloudFile) FileView {
	return FileView{
		ID:          f.ID,
		FileName:    f.FileName,
		Size:        f.Size,
		ContentType: f.ContentType,
		UpdatedAt:   f.UpdatedAt,
	}
}
