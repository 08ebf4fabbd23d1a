// Package internal contains the core implementation packages for cachebust.
//
// # Package Organization
//
// The internal packages are organized by pipeline stage:
//
//   - config: Viper-backed configuration and the ignore/skip-hash pattern tables
//   - scanner: Filtered source tree walks producing path, mtime and size records
//   - manifest: Content hashing, hashed naming and the per-builder manifest cache
//   - build: Static asset and template builders, staleness checks and cleanup
//   - textedit: Ordered regex passes over an in-memory document
//   - rewrite: The data-build directive passes applied to every template
//   - compress: Inline script compressors (external process or esbuild)
//   - watcher: Debounced file watching behind the watch commands
//   - errors: The structured error taxonomy surfaced by the command line
//   - logging: Structured logging on log/slog
//   - version: Build information
//
// # Data Flow
//
// A build walks the asset tree, hashes every asset into a manifest and copies
// stale assets under their hashed names. The template builder then hands that
// manifest to the rewriter, which maps plain asset URLs to hashed ones in each
// stale template. Builds are single-threaded; a builder memoizes its manifest
// until Invalidate is called, so each run uses a fresh builder.
package internal
