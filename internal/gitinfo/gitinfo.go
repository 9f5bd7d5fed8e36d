// Package gitinfo resolves the repository a file belongs to by walking up
// to its .git entry. It never shells out to git.
package gitinfo

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var errNoRepo = errors.New("git dir not found")

// Repo describes the repository containing a path.
type Repo struct {
	Root   string
	Branch string
}

// Name is the base name of the repository root.
func (r Repo) Name() string {
	return filepath.Base(r.Root)
}

// Label is the group title used for tabs of this repository.
func (r Repo) Label() string {
	if r.Branch == "" {
		return r.Name()
	}
	return r.Name() + "@" + r.Branch
}

// Lookup returns the repository containing path.
func Lookup(path string) (Repo, bool) {
	gitDir, start, err := findGitDir(path)
	if err != nil {
		return Repo{}, false
	}
	branch, err := readHead(gitDir)
	if err != nil {
		branch = ""
	}
	return Repo{Root: start, Branch: branch}, true
}

func Branch(path string) string {
	repo, ok := Lookup(path)
	if !ok {
		return ""
	}
	return repo.Branch
}

func Root(path string) string {
	repo, ok := Lookup(path)
	if !ok {
		return ""
	}
	return repo.Root
}

// findGitDir returns the git directory and the work tree root holding it.
func findGitDir(path string) (string, string, error) {
	start := path
	info, err := os.Stat(start)
	if err != nil {
		return "", "", err
	}
	if !info.IsDir() {
		start = filepath.Dir(start)
	}
	for {
		gitPath := filepath.Join(start, ".git")
		if info, err := os.Stat(gitPath); err == nil {
			if info.IsDir() {
				return gitPath, start, nil
			}
			if info.Mode().IsRegular() {
				data, err := os.ReadFile(gitPath)
				if err != nil {
					return "", "", err
				}
				line := strings.TrimSpace(string(data))
				const prefix = "gitdir:"
				if strings.HasPrefix(line, prefix) {
					dir := strings.TrimSpace(strings.TrimPrefix(line, prefix))
					if !filepath.IsAbs(dir) {
						dir = filepath.Join(start, dir)
					}
					return dir, start, nil
				}
			}
		}
		parent := filepath.Dir(start)
		if parent == start {
			break
		}
		start = parent
	}
	return "", "", errNoRepo
}

func readHead(gitDir string) (string, error) {
	f, err := os.Open(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", errors.New("empty HEAD")
	}
	line := strings.TrimSpace(scanner.Text())
	const refPrefix = "ref:"
	if strings.HasPrefix(line, refPrefix) {
		ref := strings.TrimSpace(strings.TrimPrefix(line, refPrefix))
		return strings.TrimPrefix(ref, "refs/heads/"), nil
	}
	if len(line) >= 7 {
		return "detached:" + line[:7], nil
	}
	return "detached", nil
}
