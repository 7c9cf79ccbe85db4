/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 * Licensed under the Apache License, Version 2.0
 */

package defrag

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// Job is one table's defrag request: its live store, the header size
// to copy verbatim, and the path the compacted file replaces.
type Job struct {
	Name       string
	Source     Source
	HeaderSize int64
	DestPath   string
}

// All runs Defragment for every job concurrently — defrag is CPU- and
// I/O-bound per table with no shared state between tables, so there's
// nothing serializing one table's rewrite behind another's. The
// caller must already hold each table quiesced; All does not order
// jobs against each other or against any other table activity.
func All(jobs []Job) (map[string]Result, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]Result, len(jobs))
		g       errgroup.Group
	)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			result, err := Defragment(job.Source, job.HeaderSize, job.DestPath)
			if err != nil {
				return err
			}
			mu.Lock()
			results[job.Name] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
