// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package install copies a generated client source tree into the
// application source tree.
package install

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
)

// Report lists destination-relative paths touched by an install.
type Report struct {
	Copied      []string
	Overwritten []string
	Pruned      []string
}

// Files is the number of files written.
func (r *Report) Files() int { return len(r.Copied) + len(r.Overwritten) }

// Options configures an Installer.
type Options struct {
	// Prune removes destination entries with no counterpart in the source.
	Prune  bool
	Logger *slog.Logger
}

// Installer merges a source tree onto a destination tree.
type Installer struct {
	prune  bool
	logger *slog.Logger
}

// NewInstaller creates an Installer.
func NewInstaller(opts Options) *Installer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Installer{prune: opts.Prune, logger: logger}
}

// InstallDirs installs the host directory srcDir onto dstDir.
func (i *Installer) InstallDirs(srcDir, dstDir string) (*Report, error) {
	srcAbs, err := filepath.Abs(srcDir)
	if err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeInstallLayoutUnexpected, "resolving generator output", cgerr.FieldPath(srcDir))
	}
	dstAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeInstallDestinationFailed, "resolving destination", cgerr.FieldPath(dstDir))
	}

	src := osfs.New(filepath.Dir(srcAbs))
	dst := osfs.New(filepath.Dir(dstAbs))
	return i.Install(src, filepath.Base(srcAbs), dst, filepath.Base(dstAbs))
}

// Install copies every entry below srcRoot on src to the matching path below
// dstRoot on dst. Existing files are overwritten, missing directories are
// created and entries present only in the destination are kept unless
// pruning is enabled. The source layout is checked before anything in the
// destination is touched.
func (i *Installer) Install(src billy.Filesystem, srcRoot string, dst billy.Filesystem, dstRoot string) (*Report, error) {
	// Lstat: the walk below does not follow a symlinked root.
	info, err := src.Lstat(srcRoot)
	if err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeInstallLayoutUnexpected,
			"unexpected generator output layout: source directory missing", cgerr.FieldPath(srcRoot))
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, cgerr.New(cgerr.CodeInstallLayoutUnexpected,
			"unexpected generator output layout: source is a symlink", cgerr.FieldPath(srcRoot))
	}
	if !info.IsDir() {
		return nil, cgerr.New(cgerr.CodeInstallLayoutUnexpected,
			"unexpected generator output layout: source is not a directory", cgerr.FieldPath(srcRoot))
	}

	if err := dst.MkdirAll(dstRoot, 0o755); err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeInstallDestinationFailed, "creating destination", cgerr.FieldPath(dstRoot))
	}

	report := &Report{}
	seen := map[string]bool{}

	err = util.Walk(src, srcRoot, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return cgerr.Wrap(walkErr, cgerr.CodeInstallCopyFailure, "reading generator output", cgerr.FieldPath(path))
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return cgerr.Wrap(err, cgerr.CodeInstallCopyFailure, "resolving source path", cgerr.FieldPath(path))
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		seen[rel] = true
		target := dst.Join(dstRoot, rel)

		switch {
		case fi.IsDir():
			if err := dst.MkdirAll(target, fi.Mode().Perm()|0o700); err != nil {
				return cgerr.Wrap(err, cgerr.CodeInstallCopyFailure, "creating directory", cgerr.FieldPath(target))
			}
			return nil
		case fi.Mode()&os.ModeSymlink != 0:
			existed, err := replaceSymlink(src, path, dst, target)
			if err != nil {
				return err
			}
			report.record(rel, existed)
			return nil
		case fi.Mode().IsRegular():
			existed, err := copyFile(src, path, dst, target, fi.Mode().Perm())
			if err != nil {
				return err
			}
			report.record(rel, existed)
			return nil
		default:
			i.logger.Debug("skipping special file in generator output", "path", path, "mode", fi.Mode())
			return nil
		}
	})
	if err != nil {
		return report, err
	}

	if i.prune {
		if err := i.pruneStale(dst, dstRoot, seen, report); err != nil {
			return report, err
		}
	}

	i.logger.Debug("installed generated sources",
		"destination", dstRoot,
		"copied", len(report.Copied),
		"overwritten", len(report.Overwritten),
		"pruned", len(report.Pruned),
	)
	return report, nil
}

func (r *Report) record(rel string, existed bool) {
	if existed {
		r.Overwritten = append(r.Overwritten, rel)
		return
	}
	r.Copied = append(r.Copied, rel)
}

func copyFile(src billy.Filesystem, from string, dst billy.Filesystem, to string, perm os.FileMode) (existed bool, err error) {
	if fi, statErr := dst.Lstat(to); statErr == nil {
		if fi.IsDir() {
			return false, cgerr.New(cgerr.CodeInstallCopyFailure,
				"destination path is a directory, generator produced a file", cgerr.FieldPath(to))
		}
		existed = true
	}

	in, err := src.Open(from)
	if err != nil {
		return existed, cgerr.Wrap(err, cgerr.CodeInstallCopyFailure, "opening generated file", cgerr.FieldPath(from))
	}
	defer func() { _ = in.Close() }()

	out, err := dst.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return existed, cgerr.Wrap(err, cgerr.CodeInstallCopyFailure, "opening destination file", cgerr.FieldPath(to))
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return existed, cgerr.Wrap(err, cgerr.CodeInstallCopyFailure, "copying file", cgerr.FieldPath(to))
	}
	if err := out.Close(); err != nil {
		return existed, cgerr.Wrap(err, cgerr.CodeInstallCopyFailure, "closing destination file", cgerr.FieldPath(to))
	}
	// OpenFile only applies perm on create; overwritten files take the
	// source mode too.
	if ch, ok := dst.(billy.Change); ok {
		if err := ch.Chmod(to, perm); err != nil && !errors.Is(err, billy.ErrNotSupported) {
			return existed, cgerr.Wrap(err, cgerr.CodeInstallCopyFailure, "setting file mode", cgerr.FieldPath(to))
		}
	}
	return existed, nil
}

func replaceSymlink(src billy.Filesystem, from string, dst billy.Filesystem, to string) (existed bool, err error) {
	link, err := src.Readlink(from)
	if err != nil {
		return false, cgerr.Wrap(err, cgerr.CodeInstallCopyFailure, "reading symlink", cgerr.FieldPath(from))
	}
	if _, statErr := dst.Lstat(to); statErr == nil {
		existed = true
		if err := dst.Remove(to); err != nil {
			return existed, cgerr.Wrap(err, cgerr.CodeInstallCopyFailure, "replacing symlink", cgerr.FieldPath(to))
		}
	}
	if err := dst.Symlink(link, to); err != nil {
		return existed, cgerr.Wrap(err, cgerr.CodeInstallCopyFailure, "creating symlink", cgerr.FieldPath(to))
	}
	return existed, nil
}

// pruneStale removes destination entries that were not produced by the
// current install. Unseen directories are removed whole.
func (i *Installer) pruneStale(dst billy.Filesystem, dstRoot string, seen map[string]bool, report *Report) error {
	var stale []string
	err := util.Walk(dst, dstRoot, func(path string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, os.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		rel, err := filepath.Rel(dstRoot, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if seen[rel] {
			return nil
		}
		stale = append(stale, rel)
		if fi.IsDir() {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return cgerr.Wrap(err, cgerr.CodeInstallPruneFailure, "scanning destination", cgerr.FieldPath(dstRoot))
	}

	sort.Strings(stale)
	for _, rel := range stale {
		if err := util.RemoveAll(dst, dst.Join(dstRoot, rel)); err != nil {
			return cgerr.Wrap(err, cgerr.CodeInstallPruneFailure, "removing stale entry", cgerr.FieldPath(rel))
		}
		report.Pruned = append(report.Pruned, rel)
		i.logger.Debug("pruned stale file", "path", rel)
	}
	return nil
}
