// Package deploy builds and publishes the package graph to npm in
// dependency order so nothing ever depends on a version that is not
// published yet.
package deploy

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/driftlabs/webcheck/internal/commands"
	"github.com/driftlabs/webcheck/internal/config"
	"github.com/driftlabs/webcheck/pkg/logger"
)

// stage is one build target and the packages it publishes.
type stage struct {
	build    string
	packages []string
}

// Publish order matters: every stage only depends on earlier ones.
var stages = []stage{
	{build: "global-this", packages: []string{"@driftlabs/global-this"}},
	{build: "crypto", packages: []string{"@driftlabs/crypto"}},
	{build: "errors", packages: []string{"@driftlabs/errors"}},
	{build: "identity", packages: []string{"@driftlabs/identity"}},
	{build: "file-ponyfill", packages: []string{"@driftlabs/file-ponyfill"}},
	{build: "file-reader", packages: []string{"@driftlabs/file-reader"}},
	{build: "http-utils", packages: []string{"@driftlabs/http-utils"}},
	{build: "types", packages: []string{"@driftlabs/types"}},
	{build: "streams", packages: []string{
		"@driftlabs/stream-base",
		"@driftlabs/stream-cloud-storage",
	}},
	{build: "datastores", packages: []string{
		"@driftlabs/datastore-base",
		"@driftlabs/datastore-dexie-base",
		"@driftlabs/datastore-dexie-browser",
		"@driftlabs/datastore-pouchdb-base",
		"@driftlabs/datastore-pouchdb-memory",
		"@driftlabs/datastore-pouchdb-node",
	}},
	{build: "core", packages: []string{"@driftlabs/core"}},
	{build: "client-browser", packages: []string{"@driftlabs/client-browser"}},
	{build: "client-node", packages: []string{"@driftlabs/client-node"}},
	{build: "verification-ui", packages: []string{"@driftlabs/verification-ui"}},
	{build: "fake-authentication", packages: []string{"@driftlabs/fake-authentication"}},
	{build: "filekit", packages: []string{"@driftlabs/filekit"}},
}

var (
	tagRe = regexp.MustCompile(`^v(\d+\.\d+\.\d+(?:-[0-9A-Za-z.\-]+)?)$`)
	// datastore-* and stream-* packages live under their group directory.
	packageRe = regexp.MustCompile(`^@driftlabs/(?:(datastore|stream)-)?(.+)$`)
)

type Deployer struct {
	cfg    *config.Config
	yarn   *commands.Yarn
	runner commands.CommandRunner
}

func New(cfg *config.Config, yarn *commands.Yarn, runner commands.CommandRunner) *Deployer {
	return &Deployer{cfg: cfg, yarn: yarn, runner: runner}
}

// Run builds each delivery target and publishes its packages at the
// version derived from the git tag.
func (d *Deployer) Run(ctx context.Context, gitTag, env string) error {
	log := logger.WithComponent("deploy")

	version, err := versionFromGitTag(gitTag)
	if err != nil {
		return err
	}
	tag := npmTag(version)
	log.Info().Str("version", version).Str("npm_tag", tag).Str("env", env).Msg("Deploying packages")

	if err := d.yarn.InstallDeps(ctx); err != nil {
		return fmt.Errorf("dependency install failed: %w", err)
	}

	buildEnv := []string{d.cfg.Project.ConfigEnvVar + "=" + env}
	for _, s := range stages {
		if err := d.yarn.Run(ctx, buildEnv, "build:"+s.build); err != nil {
			return fmt.Errorf("build %s failed: %w", s.build, err)
		}
		for _, pkg := range s.packages {
			if err := d.publish(ctx, pkg, version, tag); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Deployer) publish(ctx context.Context, pkg, version, tag string) error {
	dir, err := packagePath(pkg)
	if err != nil {
		return err
	}

	if err := d.runner.Run(ctx, commands.Command{
		Name: "npm",
		Args: []string{"version", version, "--no-git-tag-version", "--allow-same-version"},
		Dir:  dir,
	}); err != nil {
		return fmt.Errorf("failed to set %s version: %w", pkg, err)
	}

	if err := d.runner.Run(ctx, commands.Command{
		Name: "npm",
		Args: []string{"publish", "--access", "public", "--tag", tag},
		Dir:  dir,
	}); err != nil {
		return fmt.Errorf("failed to publish %s: %w", pkg, err)
	}
	return nil
}

// versionFromGitTag strips the leading v from a release tag.
func versionFromGitTag(gitTag string) (string, error) {
	m := tagRe.FindStringSubmatch(gitTag)
	if m == nil {
		return "", fmt.Errorf("malformed release tag %q (expected vX.Y.Z)", gitTag)
	}
	return m[1], nil
}

// npmTag keeps prereleases away from the latest dist-tag.
func npmTag(version string) string {
	for _, tag := range []string{"alpha", "beta"} {
		if strings.Contains(version, tag) {
			return tag
		}
	}
	return "latest"
}

// packagePath maps a package name to the dist directory it publishes
// from.
func packagePath(pkg string) (string, error) {
	m := packageRe.FindStringSubmatch(pkg)
	if m == nil {
		return "", fmt.Errorf("unknown package name %q", pkg)
	}
	if m[1] != "" {
		return filepath.Join("packages", m[1], m[2], "dist"), nil
	}
	return filepath.Join("packages", m[2], "dist"), nil
}
