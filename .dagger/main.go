// adam CI
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/adam/internal/dagger"
)

// Adam is the CI module for the adam dashboard client
type Adam struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Adam CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", ".devenv", "build", "tmp", ".adam"]
	source *dagger.Directory,
) *Adam {
	return &Adam{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted.
//
// go-sqlite3 needs CGO, so tests run here rather than in the build container.
func (a *Adam) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", a.Source)
}

// postgres returns a throwaway PostgreSQL service for the storage driver tests.
func (a *Adam) postgres() *dagger.Service {
	return dag.Container().
		From("postgres:17-alpine").
		WithEnvVariable("POSTGRES_USER", "adam").
		WithEnvVariable("POSTGRES_PASSWORD", "adam").
		WithEnvVariable("POSTGRES_DB", "adam").
		WithExposedPort(5432).
		AsService()
}

// Test runs the adam unit tests via "go test", including the PostgreSQL
// storage driver tests against a service container.
func (a *Adam) Test(ctx context.Context) (string, error) {
	return a.goContainer().
		WithServiceBinding("db", a.postgres()).
		WithEnvVariable("ADAM_TEST_POSTGRES_DSN", "postgres://adam:adam@db:5432/adam?sslmode=disable").
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}
