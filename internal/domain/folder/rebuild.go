package folder

import (
	"context"
	"log"
)

// RebuildDescendantPaths recomputes the derived storage path for every file
// transitively under folderID. It is idempotent and safe to re-run from
// scratch: it only writes derived state. Files are processed in bounded
// batches, re-queried per batch, so files appearing or disappearing mid-run
// are tolerated.
func (s *Service) RebuildDescendantPaths(ctx context.Context, folderID string) error {
	root, err := s.repo.GetAnyByID(ctx, folderID)
	if err != nil {
		if err == ErrNotFound {
			// Folder deleted since the rebuild was queued; nothing to do.
			return nil
		}
		return err
	}

	rootPath, err := s.Path(ctx, root)
	if err != nil {
		return err
	}

	// Breadth-first over the subtree, carrying each folder's path down.
	type node struct {
		folder *Folder
		path   string
	}
	queue := []node{{folder: root, path: rootPath}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if err := s.rebuildFolderFiles(ctx, current.folder, current.path); err != nil {
			return err
		}

		children, err := s.repo.ListChildren(ctx, current.folder.OwnerID, &current.folder.ID)
		if err != nil {
			return err
		}
		for _, child := range children {
			queue = append(queue, node{folder: child, path: current.path + "/" + child.Name})
		}
	}
	return nil
}

func (s *Service) rebuildFolderFiles(ctx context.Context, f *Folder, folderPath string) error {
	afterID := ""
	for {
		refs, err := s.files.ListActiveByFolderPage(ctx, f.ID, afterID, s.batchSize)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return nil
		}
		for _, ref := range refs {
			if err := s.files.UpdateStoragePath(ctx, ref.ID, folderPath+"/"+ref.FileName); err != nil {
				return err
			}
			afterID = ref.ID
		}
		if len(refs) < s.batchSize {
			return nil
		}
	}
}

// ProcessPendingRebuilds drains the rebuild queue. Called by the maintenance
// job; failed jobs stay queued with an incremented attempt count.
func (s *Service) ProcessPendingRebuilds(ctx context.Context, limit int) (int, error) {
	jobs, err := s.repo.ListPendingRebuilds(ctx, limit)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, job := range jobs {
		if err := s.RebuildDescendantPaths(ctx, job.FolderID); err != nil {
			log.Printf("path_rebuild_failed job=%s folder=%s attempts=%d error=%q",
				job.ID, job.FolderID, job.Attempts+1, err)
			if ferr := s.repo.FailRebuild(ctx, job.ID); ferr != nil {
				return done, ferr
			}
			continue
		}
		if err := s.repo.CompleteRebuild(ctx, job.ID); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}
