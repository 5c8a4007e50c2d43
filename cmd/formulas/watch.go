package main

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchFile calls changed each time the named file is written or replaced,
// until ctx is canceled. The directory is watched rather than the file so
// that editors which save by renaming are seen.
func watchFile(ctx context.Context, name string, changed func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	name = filepath.Clean(name)
	if err := w.Add(filepath.Dir(name)); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				changed()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
