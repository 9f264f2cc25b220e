// Package walker performs the filesystem probing (lstat, readdir,
// readlink) and assembles Entry trees. It is the only package that
// touches the OS filesystem API.
package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"github.com/kristianoye/klf-yap/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Walker builds Entry trees from concrete (wildcard-free) paths. The
// same walker may serve many walks; it holds no per-walk state beyond
// the probe semaphore.
type Walker struct {
	logger *zap.Logger
	sem    *semaphore.Weighted
}

// New creates a walker. concurrency caps in-flight filesystem probes;
// zero or negative means effectively unbounded.
func New(logger *zap.Logger, concurrency int) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &Walker{logger: logger}
	if concurrency > 0 {
		w.sem = semaphore.NewWeighted(int64(concurrency))
	}
	return w
}

// Stat probes one concrete path and returns its Entry tree. Directory
// children resolve concurrently, but the directory's own Entry is only
// returned once every child has resolved, so callers always observe
// complete child lists. Children appear in lexical name order.
//
// Under the query's throw policy (the default) the first probe failure
// anywhere aborts the walk of this path; otherwise failures become
// placeholder entries and the walk continues. Context cancellation
// always aborts.
func (w *Walker) Stat(ctx context.Context, path string, q *models.Query) (*models.Entry, error) {
	if !q.Normalized() {
		nq, err := q.Normalize()
		if err != nil {
			return nil, err
		}
		q = nq
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	ws := &walkState{w: w, q: q, mode: q.NumericMode()}
	return ws.statPath(ctx, abs, nil, true)
}

// StatAsync runs Stat off the calling goroutine and delivers the result
// through cb exactly once. The produced tree is structurally identical
// to a synchronous Stat of the same filesystem state.
func (w *Walker) StatAsync(ctx context.Context, path string, q *models.Query, cb func(*models.Entry, error)) {
	go func() {
		entry, err := w.Stat(ctx, path, q)
		cb(entry, err)
	}()
}

// walkState is the per-walk context: the normalized query, the numeric
// mode fixed at the root, and the root device for single-filesystem
// pruning.
type walkState struct {
	w    *Walker
	q    *models.Query
	mode models.NumericMode

	rootOnce sync.Once
	rootDev  int64
}

// statPath probes one path. active is the set of canonical link-target
// paths currently being resolved on this branch; it breaks symlink
// cycles by refusing re-entry. expand controls whether a directory's
// children are listed: true at the walk root, and below it only when
// the query is recursive.
func (ws *walkState) statPath(ctx context.Context, path string, active map[string]bool, expand bool) (*models.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := ws.probeLstat(ctx, path)
	if err != nil {
		return ws.fail(path, err)
	}

	stat := newStat(info, ws.mode)
	ws.rootOnce.Do(func() { ws.rootDev = stat.Dev.Int64() })

	entry := models.NewEntry(path, classify(info.Mode()), stat)

	switch {
	case entry.Type == models.TypeLink:
		return ws.resolveLink(ctx, entry, active, expand)
	case entry.Type == models.TypeDirectory:
		if !ws.shouldExpand(entry, expand) {
			return entry, nil
		}
		return ws.expandDir(ctx, entry, active)
	default:
		// Files, devices, sockets and FIFOs are terminal.
		return entry, nil
	}
}

// shouldExpand decides whether a directory's children get listed,
// applying max-depth pruning and the single-filesystem constraint.
func (ws *walkState) shouldExpand(entry *models.Entry, expand bool) bool {
	if !expand {
		return false
	}
	if ws.q.MaxDepth >= 0 && entry.Depth >= ws.q.MaxDepth {
		return false
	}
	if ws.q.SingleFilesystem && entry.Stat.Dev.Int64() != ws.rootDev {
		ws.w.logger.Debug("not crossing filesystem boundary",
			zap.String("path", entry.FullPath))
		return false
	}
	return true
}

// expandDir lists a directory and resolves every child before the
// directory's own Entry is published (the join barrier). Children
// resolve concurrently; the probe semaphore bounds how many filesystem
// operations are actually in flight.
func (ws *walkState) expandDir(ctx context.Context, dir *models.Entry, active map[string]bool) (*models.Entry, error) {
	names, err := ws.probeReadDir(ctx, dir.FullPath)
	if err != nil {
		return ws.fail(dir.FullPath, err)
	}

	children := make([]*models.Entry, len(names))
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			child, err := ws.statPath(ctx, filepath.Join(dir.FullPath, name), active, ws.q.Recursive)
			children[i] = child
			errs[i] = err
		}(i, name)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return dir.WithChildren(children), nil
}

// resolveLink attaches the raw target name, and under followLinks the
// fully-resolved target entry. A link whose canonical target is already
// being resolved on this branch stays shallow instead of recursing into
// its own ancestry.
func (ws *walkState) resolveLink(ctx context.Context, link *models.Entry, active map[string]bool, expand bool) (*models.Entry, error) {
	target, err := ws.probeReadlink(ctx, link.FullPath)
	if err != nil {
		return ws.fail(link.FullPath, err)
	}
	link.LinkTargetName = target

	if !ws.q.FollowLinks {
		return link, nil
	}

	resolved := target
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(link.FullPath), resolved)
	}
	resolved = filepath.Clean(resolved)

	if active[resolved] {
		ws.w.logger.Debug("symlink cycle, keeping link shallow",
			zap.String("link", link.FullPath),
			zap.String("target", resolved))
		return link, nil
	}

	branch := make(map[string]bool, len(active)+1)
	for p := range active {
		branch[p] = true
	}
	branch[resolved] = true

	targetEntry, err := ws.statPath(ctx, resolved, branch, expand)
	if err != nil {
		return nil, err
	}
	return link.WithLinkTarget(targetEntry), nil
}

// fail converts a probe failure per the query's policy: an error under
// throw, a placeholder entry otherwise. Context cancellation is never
// converted.
func (ws *walkState) fail(path string, err error) (*models.Entry, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if ws.q.Throws() {
		return nil, err
	}
	ws.w.logger.Debug("probe failed, continuing with placeholder",
		zap.String("path", path),
		zap.Error(err))
	return models.NewPlaceholder(path, err), nil
}

// Probe helpers. The semaphore is held only for the syscall itself,
// never across a subtree, so bounded walks cannot deadlock on their own
// recursion.

func (ws *walkState) acquire(ctx context.Context) error {
	if ws.w.sem == nil {
		return ctx.Err()
	}
	return ws.w.sem.Acquire(ctx, 1)
}

func (ws *walkState) release() {
	if ws.w.sem != nil {
		ws.w.sem.Release(1)
	}
}

func (ws *walkState) probeLstat(ctx context.Context, path string) (os.FileInfo, error) {
	if err := ws.acquire(ctx); err != nil {
		return nil, err
	}
	defer ws.release()
	return os.Lstat(path)
}

func (ws *walkState) probeReadDir(ctx context.Context, path string) ([]string, error) {
	if err := ws.acquire(ctx); err != nil {
		return nil, err
	}
	defer ws.release()

	ents, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ents))
	for i, e := range ents {
		names[i] = e.Name()
	}
	return names, nil
}

func (ws *walkState) probeReadlink(ctx context.Context, path string) (string, error) {
	if err := ws.acquire(ctx); err != nil {
		return "", err
	}
	defer ws.release()
	return os.Readlink(path)
}

// classify maps stat mode bits to an entry type.
func classify(mode os.FileMode) models.EntryType {
	switch {
	case mode&os.ModeSymlink != 0:
		return models.TypeLink
	case mode.IsDir():
		return models.TypeDirectory
	case mode&os.ModeSocket != 0:
		return models.TypeSocket
	case mode&os.ModeNamedPipe != 0:
		return models.TypeFIFO
	case mode&os.ModeDevice != 0:
		if mode&os.ModeCharDevice != 0 {
			return models.TypeCharacterDevice
		}
		return models.TypeBlockDevice
	case mode.IsRegular():
		return models.TypeFile
	default:
		return models.TypeUnknown
	}
}
