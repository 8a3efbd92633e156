// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package watch reports the prompt metadata of image files as they appear
// in a directory.
//
// A Watcher wraps fsnotify. Write and create events are debounced per path,
// so a file is decoded once after its writer goes quiet. Decoding is rate
// limited and every decoded file is delivered as an Event.
//
// # Key Types
//
//   - Watcher: fsnotify-backed directory watcher
//   - Options: debounce, recursion, extension filter and rate limit
//   - Event: path plus the pngmeta.Result (or the read error)
//
// # Usage
//
//	w, err := watch.New(dir, watch.Options{Debounce: 250 * time.Millisecond})
//	if err != nil {
//	    return err
//	}
//	go func() {
//	    for ev := range w.Events() {
//	        fmt.Println(ev.Path, ev.Result.Prompt)
//	    }
//	}()
//	err = w.Run(ctx) // blocks until ctx is cancelled
package watch
