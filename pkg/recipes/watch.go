package recipes

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the book at path into a whenever the file is written or
// replaced, until ctx is done or the returned stop function is called. A
// book that fails to load or index is logged and the previous index stays in
// service.
//
// stop returns once the watcher has exited, so no reload can touch a after
// it; call it before closing a.
func Watch(ctx context.Context, path string, build Builder, a *Assistant, logger *zap.Logger) (stop func(), err error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: editors often replace the file rather than write it.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				reload(target, build, a, logger)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("recipe book watcher error", zap.Error(err))
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

func reload(path string, build Builder, a *Assistant, logger *zap.Logger) {
	book, err := LoadBook(path)
	if err != nil {
		logger.Warn("recipe book reload failed", zap.String("path", path), zap.Error(err))
		return
	}

	idx, err := build(book.Recipes)
	if err != nil {
		logger.Warn("recipe index rebuild failed", zap.String("path", path), zap.Error(err))
		return
	}

	a.SetIndex(idx)
	logger.Info("recipe book reloaded", zap.String("path", path), zap.Int("recipe_count", idx.Len()))
}
