// seed_catalog genera la migración SQL que puebla planes y apps del marketplace
// a partir de un catálogo YAML.
//
// Uso: go run ./cmd/seed_catalog [ruta/catalog.yaml]
// Por defecto lee config/catalog.yaml.
// Escribe: internal/infrastructure/postgres/migrations/00002_seed_catalog.sql
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Los IDs se derivan del slug para que regenerar el seed no cambie claves primarias.
var seedNamespace = uuid.MustParse("6f1c9a52-3b0e-4d7a-9a61-0c4f8e2b7d15")

type catalogFile struct {
	Plans []planSeed `yaml:"plans"`
	Apps  []appSeed  `yaml:"apps"`
}

type planSeed struct {
	Slug           string   `yaml:"slug"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Position       int      `yaml:"position"`
	PriceMonthly   int64    `yaml:"price_monthly"` // centavos
	PriceYearly    int64    `yaml:"price_yearly"`
	MaxUsers       int      `yaml:"max_users"` // -1 = ilimitado
	StorageQuotaGB int      `yaml:"storage_quota_gb"`
	Features       []string `yaml:"features"`
	Apps           []string `yaml:"apps"` // slugs incluidos explícitamente
}

type appSeed struct {
	Slug             string   `yaml:"slug"`
	Name             string   `yaml:"name"`
	Description      string   `yaml:"description"`
	SSOURL           string   `yaml:"sso_url"`
	RequiresPlan     bool     `yaml:"requires_plan"`
	MinimumPlanLevel *int     `yaml:"minimum_plan_level"`
	Category         string   `yaml:"category"`
	Tags             []string `yaml:"tags"`
	Features         []string `yaml:"features"`
	Rating           string   `yaml:"rating"`
	IsPopular        bool     `yaml:"is_popular"`
	IsFeatured       bool     `yaml:"is_featured"`
	IconURL          string   `yaml:"icon_url"`
}

func main() {
	path := filepath.Join("config", "catalog.yaml")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir catálogo: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	cat, err := parseCatalog(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catálogo inválido: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(findModuleRoot(), "internal", "infrastructure", "postgres", "migrations", "00002_seed_catalog.sql")
	if err := os.WriteFile(outPath, []byte(renderSQL(cat)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir migración: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d planes, %d apps\n", outPath, len(cat.Plans), len(cat.Apps))
}

func parseCatalog(r io.Reader) (*catalogFile, error) {
	var cat catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("decodificar yaml: %w", err)
	}

	apps := make(map[string]bool, len(cat.Apps))
	for _, a := range cat.Apps {
		if a.Slug == "" || a.Name == "" {
			return nil, errors.New("toda app necesita slug y name")
		}
		if apps[a.Slug] {
			return nil, fmt.Errorf("app duplicada: %s", a.Slug)
		}
		if a.MinimumPlanLevel != nil && (*a.MinimumPlanLevel < 0 || *a.MinimumPlanLevel > 3) {
			return nil, fmt.Errorf("app %s: minimum_plan_level fuera de 0..3", a.Slug)
		}
		apps[a.Slug] = true
	}
	positions := make(map[int]string, len(cat.Plans))
	for _, p := range cat.Plans {
		if p.Slug == "" || p.Name == "" {
			return nil, errors.New("todo plan necesita slug y name")
		}
		if other, ok := positions[p.Position]; ok {
			return nil, fmt.Errorf("planes %s y %s comparten position %d", other, p.Slug, p.Position)
		}
		positions[p.Position] = p.Slug
		for _, s := range p.Apps {
			if !apps[s] {
				return nil, fmt.Errorf("plan %s incluye app desconocida %s", p.Slug, s)
			}
		}
	}
	sort.Slice(cat.Plans, func(i, j int) bool { return cat.Plans[i].Position < cat.Plans[j].Position })
	return &cat, nil
}

func renderSQL(cat *catalogFile) string {
	var b strings.Builder
	b.WriteString("-- Catálogo inicial de planes y apps\n")
	b.WriteString("-- Generado por cmd/seed_catalog; no editar a mano\n\n")
	b.WriteString("-- +goose Up\n")

	b.WriteString("-- 1. Planes\n")
	for _, p := range cat.Plans {
		fmt.Fprintf(&b, "INSERT INTO subscription_plans (id, slug, name, description, position, price_monthly, price_yearly, max_users, storage_quota_gb, features)\n")
		fmt.Fprintf(&b, "VALUES ('%s', %s, %s, %s, %d, %d, %d, %d, %d, %s)\n",
			seedID("plan", p.Slug), quote(p.Slug), quote(p.Name), quote(p.Description), p.Position,
			p.PriceMonthly, p.PriceYearly, quota(p.MaxUsers), quota(p.StorageQuotaGB), textArray(p.Features))
		b.WriteString("ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description,\n")
		b.WriteString("  price_monthly = EXCLUDED.price_monthly, price_yearly = EXCLUDED.price_yearly, features = EXCLUDED.features;\n")
	}

	b.WriteString("\n-- 2. Apps\n")
	for _, a := range cat.Apps {
		level := "NULL"
		if a.MinimumPlanLevel != nil {
			level = fmt.Sprint(*a.MinimumPlanLevel)
		}
		rating := a.Rating
		if rating == "" {
			rating = "0"
		}
		fmt.Fprintf(&b, "INSERT INTO apps (id, slug, name, description, sso_url, requires_plan, minimum_plan_level, category, tags, features, rating, is_popular, is_featured, icon_url)\n")
		fmt.Fprintf(&b, "VALUES ('%s', %s, %s, %s, %s, %t, %s, %s, %s, %s, %s, %t, %t, %s)\n",
			seedID("app", a.Slug), quote(a.Slug), quote(a.Name), quote(a.Description), quote(a.SSOURL),
			a.RequiresPlan, level, quote(a.Category), textArray(a.Tags), textArray(a.Features),
			quote(rating), a.IsPopular, a.IsFeatured, quote(a.IconURL))
		b.WriteString("ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, description = EXCLUDED.description,\n")
		b.WriteString("  sso_url = EXCLUDED.sso_url, requires_plan = EXCLUDED.requires_plan, minimum_plan_level = EXCLUDED.minimum_plan_level;\n")
	}

	b.WriteString("\n-- 3. Inclusiones explícitas plan-app\n")
	for _, p := range cat.Plans {
		for _, s := range p.Apps {
			fmt.Fprintf(&b, "INSERT INTO plan_apps (id, plan_id, app_id, is_included)\n")
			fmt.Fprintf(&b, "SELECT '%s', p.id, a.id, true FROM subscription_plans p, apps a WHERE p.slug = %s AND a.slug = %s\n",
				seedID("plan_app", p.Slug+"/"+s), quote(p.Slug), quote(s))
			b.WriteString("ON CONFLICT (plan_id, app_id) DO UPDATE SET is_included = true;\n")
		}
	}

	b.WriteString("\n-- +goose Down\n")
	if len(cat.Apps) > 0 {
		fmt.Fprintf(&b, "DELETE FROM apps WHERE slug IN (%s);\n", slugList(len(cat.Apps), func(i int) string { return cat.Apps[i].Slug }))
	}
	if len(cat.Plans) > 0 {
		fmt.Fprintf(&b, "DELETE FROM subscription_plans WHERE slug IN (%s);\n", slugList(len(cat.Plans), func(i int) string { return cat.Plans[i].Slug }))
	}
	return b.String()
}

func seedID(kind, key string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+key)).String()
}

// quota 0 (omitido) vale 1; -1 se conserva como ilimitado.
func quota(n int) int {
	if n == 0 {
		return 1
	}
	return n
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func textArray(items []string) string {
	if len(items) == 0 {
		return "'{}'"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = quote(s)
	}
	return "ARRAY[" + strings.Join(quoted, ", ") + "]::text[]"
}

func slugList(n int, at func(int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = quote(at(i))
	}
	return strings.Join(parts, ", ")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
