// Package publish commits the generated site and pushes it to its remote.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/docmigrate/internal/config"
	foundationerrors "git.home.luguber.info/inful/docmigrate/internal/foundation/errors"
	"git.home.luguber.info/inful/docmigrate/internal/logfields"
)

// Result describes what a publish did.
type Result struct {
	Changed bool
	Files   int
	Commit  string
	Pushed  bool
}

// Publisher pulls, stages everything, commits and pushes a site repository.
type Publisher struct {
	cfg    config.PublishConfig
	logger *slog.Logger
	now    func() time.Time
}

// New creates a publisher. A nil logger uses slog.Default.
func New(cfg config.PublishConfig, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{cfg: cfg, logger: logger, now: time.Now}
}

// Publish commits every change under repoPath with message (the configured
// message when empty) and pushes it. A clean worktree is not an error and
// produces no commit. An empty remote name commits without pushing.
func (p *Publisher) Publish(ctx context.Context, repoPath, message string) (Result, error) {
	var res Result
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return res, classify(err, "open", repoPath)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return res, classify(err, "worktree", repoPath)
	}

	if p.cfg.Pull && p.cfg.Remote != "" {
		if err := p.pull(ctx, wt); err != nil {
			return res, err
		}
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return res, classify(err, "add", repoPath)
	}
	status, err := wt.Status()
	if err != nil {
		return res, classify(err, "status", repoPath)
	}
	if status.IsClean() {
		p.logger.Info("Nothing to publish", logfields.Path(repoPath))
		return res, nil
	}
	res.Changed = true
	res.Files = len(status)

	if message == "" {
		message = p.cfg.Message
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: p.cfg.AuthorName, Email: p.cfg.AuthorEmail, When: p.now()},
	})
	if err != nil {
		return res, classify(err, "commit", repoPath)
	}
	res.Commit = hash.String()
	p.logger.Info("Committed site changes",
		logfields.Path(repoPath),
		logfields.Count(res.Files),
		slog.String("commit", res.Commit))

	if p.cfg.Remote == "" {
		return res, nil
	}
	if err := p.push(ctx, repo); err != nil {
		return res, err
	}
	res.Pushed = true
	p.logger.Info("Pushed site changes", slog.String("remote", p.cfg.Remote), slog.String("commit", res.Commit))
	return res, nil
}

func (p *Publisher) pull(ctx context.Context, wt *git.Worktree) error {
	opts := &git.PullOptions{RemoteName: p.cfg.Remote, Auth: p.auth()}
	if p.cfg.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(p.cfg.Branch)
	}
	err := wt.PullContext(ctx, opts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return classify(err, "pull", p.cfg.Remote)
	}
	return nil
}

func (p *Publisher) push(ctx context.Context, repo *git.Repository) error {
	opts := &git.PushOptions{RemoteName: p.cfg.Remote, Auth: p.auth()}
	if p.cfg.Branch != "" {
		ref := plumbing.NewBranchReferenceName(p.cfg.Branch)
		opts.RefSpecs = []ggitcfg.RefSpec{ggitcfg.RefSpec(fmt.Sprintf("%s:%s", ref, ref))}
	}
	err := repo.PushContext(ctx, opts)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return classify(err, "push", p.cfg.Remote)
	}
	return nil
}

// auth returns token basic auth for HTTP remotes, or nil when no token is set.
func (p *Publisher) auth() transport.AuthMethod {
	if p.cfg.Token == "" {
		return nil
	}
	user := p.cfg.Username
	if user == "" {
		user = "token"
	}
	return &githttp.BasicAuth{Username: user, Password: p.cfg.Token}
}

// classify translates go-git errors into classified errors.
func classify(err error, op, target string) error {
	if _, ok := foundationerrors.AsClassified(err); ok {
		return err
	}
	l := strings.ToLower(err.Error())
	category := foundationerrors.CategoryGit
	retry := foundationerrors.RetryNever
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
		category = foundationerrors.CategoryNotFound
	case strings.Contains(l, "authentication") || strings.Contains(l, "authorization") || strings.Contains(l, "invalid credentials"):
		category = foundationerrors.CategoryAuth
	case strings.Contains(l, "timeout") || strings.Contains(l, "connection reset") || strings.Contains(l, "remote hung up"):
		category = foundationerrors.CategoryNetwork
		retry = foundationerrors.RetryBackoff
	}
	b := foundationerrors.WrapError(err, category, "git "+op+" failed").
		WithRetry(retry).
		WithContext("op", op).
		WithContext("target", target)
	if errors.Is(err, git.ErrNonFastForwardUpdate) || strings.Contains(l, "non-fast-forward") {
		b = b.WithContext("diverged", true)
	}
	return b.Build()
}
