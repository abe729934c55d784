// Package jobs runs background maintenance against the object store and the
// file records.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pawanx64/File-Sharing-Backend/metrics"
	"github.com/pawanx64/File-Sharing-Backend/models"
	"github.com/pawanx64/File-Sharing-Backend/storage"
)

type FileLister interface {
	ListAll(ctx context.Context) ([]models.File, error)
}

type ReconcileConfig struct {
	// Folder limits the sweep to keys under this prefix.
	Folder string
	// Grace skips objects and records younger than this, so uploads and
	// deletes in flight are not mistaken for orphans.
	Grace  time.Duration
	DryRun bool
}

// Report is the outcome of one pass.
type Report struct {
	Objects       int
	Records       int
	OrphanObjects []string
	DanglingFiles []string
	Swept         int
	SweepFailures int
}

// Reconciler finds objects without a record and records without an object.
// Orphaned objects are deleted; dangling records are only reported since the
// bytes they pointed to are already gone.
type Reconciler struct {
	files FileLister
	store storage.ObjectStore
	cfg   ReconcileConfig
	now   func() time.Time
	log   *zap.SugaredLogger
}

func NewReconciler(files FileLister, store storage.ObjectStore, cfg ReconcileConfig, log *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		files: files,
		store: store,
		cfg:   cfg,
		now:   time.Now,
		log:   log.Named("reconciler"),
	}
}

func (r *Reconciler) prefix() string {
	if r.cfg.Folder == "" {
		return ""
	}
	return strings.TrimSuffix(r.cfg.Folder, "/") + "/"
}

func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	report, err := r.run(ctx)
	if err != nil {
		metrics.ReconcileRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ReconcileRunsTotal.WithLabelValues("ok").Inc()
	return report, nil
}

func (r *Reconciler) run(ctx context.Context) (*Report, error) {
	prefix := r.prefix()
	objects, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	files, err := r.files.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list file records: %w", err)
	}

	cutoff := r.now().Add(-r.cfg.Grace)
	report := &Report{Objects: len(objects), Records: len(files)}

	known := make(map[string]struct{}, len(files))
	for _, f := range files {
		known[f.PublicID] = struct{}{}
	}
	stored := make(map[string]struct{}, len(objects))
	for _, o := range objects {
		stored[o.Key] = struct{}{}
	}

	for _, o := range objects {
		if _, ok := known[o.Key]; ok || o.LastModified.After(cutoff) {
			continue
		}
		report.OrphanObjects = append(report.OrphanObjects, o.Key)
		metrics.OrphansTotal.WithLabelValues("blob").Inc()

		if r.cfg.DryRun {
			continue
		}
		if err := r.store.Delete(ctx, o.Key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			report.SweepFailures++
			r.log.Warnw("removing orphaned object failed", "key", o.Key, "error", err)
			continue
		}
		report.Swept++
		metrics.OrphansSweptTotal.Inc()
	}

	for _, f := range files {
		if !strings.HasPrefix(f.PublicID, prefix) || f.UploadTime.After(cutoff) {
			continue
		}
		if _, ok := stored[f.PublicID]; ok {
			continue
		}
		report.DanglingFiles = append(report.DanglingFiles, f.ID.String())
		metrics.OrphansTotal.WithLabelValues("record").Inc()
		r.log.Warnw("file record without object", "file_id", f.ID, "key", f.PublicID)
	}

	r.log.Infow("reconcile finished",
		"objects", report.Objects,
		"records", report.Records,
		"orphan_objects", len(report.OrphanObjects),
		"dangling_records", len(report.DanglingFiles),
		"swept", report.Swept,
		"dry_run", r.cfg.DryRun,
	)
	return report, nil
}

// Start runs a pass every interval until ctx is done.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.Run(ctx); err != nil {
					r.log.Errorw("reconcile failed", "error", err)
				}
			}
		}
	}()
}
