// Package analyzer coordinates one end-to-end analysis of a repository.
//
// A run walks the repository once, renders the budgeted skeleton from the
// eligible files, chunks every eligible file and extracts manifest
// dependencies:
//
//	a, err := analyzer.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	res, err := a.Run(ctx)
//	if err != nil {
//	    return err // missing root, bad configuration or cancellation
//	}
//	err = artifact.Write(cfg.OutputDir, res.ArtifactSet())
//
// # Concurrency
//
// File reads run on an errgroup bounded by Config.Workers. Results are
// written into a slice indexed by walk position, so chunk order is the walk
// order regardless of scheduling.
//
// # Failures
//
// Unreadable and oversized files do not fail a run. They are counted in
// Result.Summary and listed in Summary.Warnings.
//
// # Persistence
//
// Persist stores a Result in the SQLite chunk store in one transaction.
// Each file carries an xxh3 fingerprint of its chunked text; files whose
// fingerprint and chunking configuration are unchanged keep their stored
// chunks, and files that disappeared are removed.
package analyzer
