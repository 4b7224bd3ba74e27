package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strings"

	creddef "github.com/goliatone/go-creddef"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"

	DefaultSourceLabel = "go-creddef"
	migrationsPath     = "data/sql/migrations"
)

// RequiredTables lists the tables the credential definition stores read and
// write. Every dialect tree must create all of them.
var RequiredTables = []string{
	"organisations",
	"users",
	"user_org_roles",
	"org_agent_types",
	"org_agents",
	"schemas",
	"credential_definitions",
}

var createTablePattern = regexp.MustCompile(`(?i)create\s+table\s+(?:if\s+not\s+exists\s+)?"?([a-z_]+)"?`)

type DialectTree struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type Registration struct {
	SourceLabel string
	Dialects    []string
	Trees       []DialectTree
}

type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

type Option func(*Registration)

func WithSourceLabel(label string) Option {
	return func(r *Registration) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			r.SourceLabel = trimmed
		}
	}
}

// WithDialects restricts registration to the named dialects. Blank and
// duplicate names are dropped.
func WithDialects(dialects ...string) Option {
	return func(r *Registration) {
		if normalized := normalizeDialects(dialects); len(normalized) > 0 {
			r.Dialects = normalized
		}
	}
}

// Trees resolves the postgres and sqlite migration trees and checks that each
// one pairs every up migration with a down migration and creates every
// required table. The embedded tree is used unless a root is given.
func Trees(root ...fs.FS) ([]DialectTree, error) {
	source := creddef.GetMigrationsFS()
	if len(root) > 0 && root[0] != nil {
		source = root[0]
	}

	postgresFS, err := fs.Sub(source, migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", migrationsPath, err)
	}
	sqliteFS, err := fs.Sub(postgresFS, DialectSQLite)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite tree: %w", err)
	}

	trees := []DialectTree{
		{Dialect: DialectPostgres, Path: migrationsPath, FS: postgresFS},
		{Dialect: DialectSQLite, Path: migrationsPath + "/" + DialectSQLite, FS: sqliteFS},
	}
	for _, tree := range trees {
		if err := checkTree(tree); err != nil {
			return nil, err
		}
	}
	return trees, nil
}

// Register hands every selected dialect tree to registerFn.
func Register(ctx context.Context, registerFn RegisterFunc, opts ...Option) (Registration, error) {
	reg := Registration{
		SourceLabel: DefaultSourceLabel,
		Dialects:    []string{DialectPostgres, DialectSQLite},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&reg)
		}
	}
	if registerFn == nil {
		return reg, fmt.Errorf("migrations: register function is required")
	}

	trees, err := Trees()
	if err != nil {
		return reg, err
	}
	for _, tree := range trees {
		if !slices.Contains(reg.Dialects, tree.Dialect) {
			continue
		}
		if err := registerFn(ctx, tree.Dialect, reg.SourceLabel, tree.FS); err != nil {
			return reg, fmt.Errorf("migrations: register %s (%s): %w", tree.Dialect, tree.Path, err)
		}
		reg.Trees = append(reg.Trees, tree)
	}
	if len(reg.Trees) == 0 {
		return reg, fmt.Errorf("migrations: no migration tree matches dialects %v", reg.Dialects)
	}
	return reg, nil
}

func checkTree(tree DialectTree) error {
	ups, err := fs.Glob(tree.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("migrations: glob %s: %w", tree.Path, err)
	}
	if len(ups) == 0 {
		return fmt.Errorf("migrations: %s tree %q has no *.up.sql files", tree.Dialect, tree.Path)
	}

	created := map[string]struct{}{}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(tree.FS, down); err != nil {
			return fmt.Errorf("migrations: %s migration %s has no down pair: %w", tree.Dialect, up, err)
		}
		content, err := fs.ReadFile(tree.FS, up)
		if err != nil {
			return fmt.Errorf("migrations: read %s/%s: %w", tree.Path, up, err)
		}
		for _, match := range createTablePattern.FindAllStringSubmatch(string(content), -1) {
			created[strings.ToLower(match[1])] = struct{}{}
		}
	}

	var missing []string
	for _, table := range RequiredTables {
		if _, ok := created[table]; !ok {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("migrations: %s tree %q does not create %s", tree.Dialect, tree.Path, strings.Join(missing, ", "))
	}
	return nil
}

func normalizeDialects(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		dialect := strings.ToLower(strings.TrimSpace(value))
		if dialect == "" || slices.Contains(out, dialect) {
			continue
		}
		out = append(out, dialect)
	}
	return out
}
