package download

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"

	"sccmod/internal/logx"
	"sccmod/internal/pump"
)

// GitClone clones a git repository and optionally applies a set of patches
// fetched by URL (spec.md §4.3).
type GitClone struct {
	URL        string
	Branch     string // "" means unset
	Commit     string // "" means unset; otherwise checked out after clone
	Submodules bool
	Shallow    bool
	Patches    []string
}

// Download clones the repository into path (skipping the clone if path
// already exists), checks out Commit (or pulls latest if unset), then
// applies Patches.
func (g *GitClone) Download(path string) error {
	if _, err := os.Stat(path); err == nil {
		logx.Warn("Module download directory already exists. Pulling latest changes")
	} else {
		args := []string{"clone", "--filter=blob:none", g.URL}
		if g.Branch != "" {
			args = append(args, "-b", g.Branch)
		}
		if g.Submodules {
			args = append(args, "--recursive")
		}
		if g.Shallow {
			args = append(args, "--depth=1")
		}
		args = append(args, path)

		result, err := pump.Run(exec.Command("git", args...))
		if err != nil {
			return xerrors.Errorf("failed to run git clone: %w", err)
		}
		if result.ExitCode != 0 {
			return xerrors.Errorf("failed to clone repository:\n%s\n%s",
				strings.Join(result.Stdout, "\n"), strings.Join(result.Stderr, "\n"))
		}
	}

	var next *exec.Cmd
	var failMsg string
	if g.Commit != "" {
		next = exec.Command("git", "checkout", g.Commit)
		failMsg = "failed to checkout commit " + g.Commit
	} else {
		next = exec.Command("git", "pull")
		failMsg = "failed to pull changes"
	}
	next.Dir = path

	result, err := pump.Run(next)
	if err != nil {
		return xerrors.Errorf("%s: %w", failMsg, err)
	}
	if result.ExitCode != 0 {
		return xerrors.Errorf("%s:\n%s\n%s", failMsg,
			strings.Join(result.Stdout, "\n"), strings.Join(result.Stderr, "\n"))
	}

	if len(g.Patches) > 0 {
		if err := g.applyPatches(path); err != nil {
			return err
		}
	}

	return nil
}

func (g *GitClone) applyPatches(path string) error {
	patchDir := filepath.Join(path, "sccmod_patches")
	if err := os.MkdirAll(patchDir, 0o755); err != nil {
		return xerrors.Errorf("failed to create patch directory %q: %w", patchDir, err)
	}

	for _, url := range g.Patches {
		fetch := exec.Command("curl", "-OL", url)
		fetch.Dir = patchDir

		result, err := pump.Run(fetch)
		if err != nil {
			return xerrors.Errorf("failed to run curl for patch %q: %w", url, err)
		}
		if result.ExitCode != 0 {
			return xerrors.Errorf("failed to fetch patch %q:\n%s\n%s", url,
				strings.Join(result.Stdout, "\n"), strings.Join(result.Stderr, "\n"))
		}

		file := filepath.Base(url)
		apply := exec.Command("git", "apply", "--reject", "--whitespace=fix", filepath.Join("sccmod_patches", file))
		apply.Dir = path

		result, err = pump.Run(apply)
		if err != nil {
			logx.Warn("failed to run git apply for patch " + file + ": " + err.Error())
			continue
		}
		if result.ExitCode != 0 {
			logx.Warn("failed to apply patch " + file + ":\n" + strings.Join(result.Stdout, "\n") + "\n" + strings.Join(result.Stderr, "\n"))
		}
	}

	return nil
}
