// Package unread aggregates per-folder unread file counts for the project
// dashboard badges.
//
// One query materializes the customer's read set for a project, then the
// per-folder count queries run concurrently across the taxonomy plus the
// project's custom folders. Results are cached briefly so repeated dashboard
// loads do not refan the queries.
package unread

import (
	"context"

	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/filerecords"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/store/readstatus"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/cache"
	"github.com/Green-Power-Project/window-app-sub001/internal/app/system/docref"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/folders"
	"github.com/Green-Power-Project/window-app-sub001/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// maxConcurrent caps the count-query fan-out per aggregation.
const maxConcurrent = 8

// Counts holds the unread aggregation for one (project, customer) pair.
type Counts struct {
	// Folders maps every countable folder path to its unread count.
	Folders map[string]int64
	// TopLevel sums child folders into their top-level parent.
	TopLevel map[string]int64
	// Total is the sum over all folders.
	Total int64
}

// Counter computes and caches unread counts.
type Counter struct {
	files *filerecords.Store
	reads *readstatus.Store
	memo  *cache.Cache[Counts]
}

// New creates a counter. The cache is shared and owned by the caller.
func New(files *filerecords.Store, reads *readstatus.Store, memo *cache.Cache[Counts]) *Counter {
	return &Counter{files: files, reads: reads, memo: memo}
}

func cacheKey(projectID, customerID primitive.ObjectID) string {
	return projectID.Hex() + ":" + customerID.Hex()
}

// ForProject returns the unread counts for a customer across a project's
// countable folders, serving from cache when fresh.
func (c *Counter) ForProject(ctx context.Context, project *models.Project, customerID primitive.ObjectID) (Counts, error) {
	key := cacheKey(project.ID, customerID)
	if counts, ok := c.memo.Get(key); ok {
		return counts, nil
	}

	readSet, err := c.reads.ReadStorageIDs(ctx, project.ID, customerID)
	if err != nil {
		return Counts{}, err
	}

	paths := folders.Countable(project.CustomFolders)
	results := make([]int64, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, path := range paths {
		g.Go(func() error {
			opts := filerecords.ListOptions{}
			if folders.AllowsUploads(path) {
				// Customers only see their own files in upload folders, so
				// only those files can be unread for them.
				id := customerID
				opts.OnlyUploaderID = &id
			}
			n, err := c.files.CountUnread(gctx, project.ID, docref.FolderKey(path), readSet, opts)
			if err != nil {
				return err
			}
			results[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Counts{}, err
	}

	counts := Counts{
		Folders:  make(map[string]int64, len(paths)),
		TopLevel: make(map[string]int64),
	}
	for i, path := range paths {
		counts.Folders[path] = results[i]
		counts.TopLevel[folders.TopLevel(path)] += results[i]
		counts.Total += results[i]
	}

	c.memo.Put(key, counts)
	return counts, nil
}

// Invalidate drops the cached counts for a (project, customer) pair. Called
// after mutations that change read state or folder contents.
func (c *Counter) Invalidate(projectID, customerID primitive.ObjectID) {
	c.memo.Delete(cacheKey(projectID, customerID))
}
