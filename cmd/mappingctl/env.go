package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/yungbote/catalog-mapping-backend/internal/app"
	"github.com/yungbote/catalog-mapping-backend/internal/data/db"
	"github.com/yungbote/catalog-mapping-backend/internal/data/repos"
	"github.com/yungbote/catalog-mapping-backend/internal/modules/mapping/validation"
	"github.com/yungbote/catalog-mapping-backend/internal/platform/logger"
	"github.com/yungbote/catalog-mapping-backend/internal/realtime/bus"
	"github.com/yungbote/catalog-mapping-backend/internal/services"
)

type globalOptions struct {
	catalog string
	db      string
	master  string
	target  string
	policy  string
	verbose bool
}

// env is one offline engine instance.
type env struct {
	log     *logger.Logger
	store   *db.Service
	mapping services.MappingService
	master  string
	target  string
}

// openEnv loads the catalog, overriding target products when products is set.
func openEnv(opts *globalOptions, products string) (*env, error) {
	log := logger.NewNop()
	if opts.verbose {
		l, err := logger.New("development")
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		log = l
	}
	source, err := services.LoadCatalogFixture(opts.catalog)
	if err != nil {
		return nil, err
	}
	fx := source.Fixture()
	master, err := pickShop(opts.master, keys(fx.Canonical), "master")
	if err != nil {
		return nil, err
	}
	target, err := pickShop(opts.target, keys(fx.Shops), "target")
	if err != nil {
		return nil, err
	}
	if products != "" {
		snapshots, err := readProducts(products)
		if err != nil {
			return nil, err
		}
		if fx.Products == nil {
			fx.Products = map[string][]validation.ProductSnapshot{}
		}
		fx.Products[target] = snapshots
		source = services.NewStaticCatalogSource(fx)
	}
	policy, err := app.LoadPolicy(log, opts.policy)
	if err != nil {
		return nil, err
	}

	store, err := db.NewSQLiteService(opts.db, log)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrateAll(store.DB()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := store.DB()
	svc := services.NewMappingService(
		theDB,
		log,
		source,
		repos.NewCategoryMappingRepo(theDB, log),
		repos.NewAttributeMappingSetRepo(theDB, log),
		repos.NewProductDefaultCategoryRepo(theDB, log),
		bus.NewMemoryBus(),
		policy,
	)
	return &env{log: log, store: store, mapping: svc, master: master, target: target}, nil
}

func (e *env) Close() {
	_ = e.store.Close()
	e.log.Sync()
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func pickShop(flag string, available []string, side string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if len(available) == 1 {
		return available[0], nil
	}
	return "", fmt.Errorf("--%s-shop is required: catalog has %d %s shops %v", side, len(available), side, available)
}

func readProducts(path string) ([]validation.ProductSnapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	var out []validation.ProductSnapshot
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode products %s: %w", path, err)
	}
	return out, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
