package foxx

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/storage/memory"

	"github.com/arangorest/arangorest-go"
)

// Bundle zips the service directory root of fs into a bundle suitable for
// Install, Replace and Upgrade. Entries are stored relative to root, so
// root must hold the service manifest. Version control directories are
// skipped.
//
// Example:
//
//	bundle, err := foxx.Bundle(osfs.New("./services"), "hello")
//	svc, err := services.Install(ctx, "/hello", bundle, nil)
func Bundle(fs billy.Filesystem, root string) ([]byte, error) {
	if root == "" {
		root = "/"
	}
	if _, err := fs.Stat(fs.Join(root, "manifest.json")); err != nil {
		return nil, &arangorest.ConfigError{Field: "root", Message: fmt.Sprintf("no manifest.json in %q", root)}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if err := addDir(zw, fs, root, ""); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finish bundle: %w", err)
	}
	return buf.Bytes(), nil
}

func addDir(zw *zip.Writer, fs billy.Filesystem, dir, prefix string) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		src := fs.Join(dir, name)
		dst := path.Join(prefix, name)
		if entry.IsDir() {
			if name == ".git" {
				continue
			}
			if err := addDir(zw, fs, src, dst); err != nil {
				return err
			}
			continue
		}
		if err := addFile(zw, fs, src, dst); err != nil {
			return err
		}
	}
	return nil
}

func addFile(zw *zip.Writer, fs billy.Filesystem, src, dst string) error {
	f, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer f.Close()

	w, err := zw.Create(dst)
	if err != nil {
		return fmt.Errorf("add %s: %w", dst, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return nil
}

// GitSource locates a service inside a git repository.
type GitSource struct {
	URL    string // Clone URL or local path
	Branch string // Branch to check out; empty for the remote HEAD
	Dir    string // Service directory within the repository; empty for the root
}

// BundleFromGit clones src into memory and bundles its service directory.
//
// Example:
//
//	bundle, err := foxx.BundleFromGit(ctx, foxx.GitSource{
//	    URL:    "https://github.com/acme/services.git",
//	    Branch: "release",
//	    Dir:    "hello",
//	})
func BundleFromGit(ctx context.Context, src GitSource) ([]byte, error) {
	if err := arangorest.RequireArg("url", src.URL); err != nil {
		return nil, err
	}

	opts := &git.CloneOptions{URL: src.URL}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
		opts.SingleBranch = true
	}

	repo, err := git.CloneContext(ctx, memory.NewStorage(), memfs.New(), opts)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", src.URL, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	return Bundle(wt.Filesystem, src.Dir)
}
