package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shinyyama/goods-backend/internal/config"
	"github.com/shinyyama/goods-backend/internal/db"
	"github.com/shinyyama/goods-backend/internal/model"
	"github.com/shinyyama/goods-backend/internal/repository"
	"github.com/shinyyama/goods-backend/internal/service"
	"gorm.io/gorm"
)

type seedProduct struct {
	Name        string
	SellerUID   string
	SellerClass model.SellerClass
	Variants    []seedVariant
}

type seedVariant struct {
	PrintType string
	Size      string
	Tiers     []service.TierInput
}

func intPtr(v int) *int { return &v }

// standardTiers is the (single, 20x20) table the storefront launched with.
var standardTiers = []service.TierInput{
	{MinQuantity: 1, MaxQuantity: intPtr(99), UnitPrice: 1600},
	{MinQuantity: 100, MaxQuantity: intPtr(499), UnitPrice: 1400},
	{MinQuantity: 500, MaxQuantity: intPtr(999), UnitPrice: 1300},
}

func buildSeedProducts() []seedProduct {
	return []seedProduct{
		{"Acrylic keychain", "seed-creator-1", model.SellerClassCreator, []seedVariant{
			{"single", "20x20", standardTiers},
			{"double", "20x20", []service.TierInput{
				{MinQuantity: 1, MaxQuantity: intPtr(99), UnitPrice: 1900},
				{MinQuantity: 100, UnitPrice: 1700},
			}},
		}},
		{"Vinyl sticker sheet", "seed-creator-2", model.SellerClassCreator, []seedVariant{
			{"single", "10x10", []service.TierInput{
				{MinQuantity: 1, MaxQuantity: intPtr(49), UnitPrice: 400},
				{MinQuantity: 50, UnitPrice: 300},
			}},
		}},
		{"Doujinshi cover print", "seed-author-1", model.SellerClassAuthor, []seedVariant{
			{"single", "20x20", standardTiers},
		}},
		{"Can badge", "seed-individual-1", model.SellerClassIndividual, []seedVariant{
			{"single", "5x5", []service.TierInput{
				{MinQuantity: 1, MaxQuantity: intPtr(99), UnitPrice: 300},
				{MinQuantity: 100, UnitPrice: 250},
			}},
		}},
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("products already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	products := repository.NewProductRepository(gdb)
	prices := service.NewPriceService(products, repository.NewPriceTierRepository(gdb))
	for _, sp := range buildSeedProducts() {
		p := &model.Product{Name: sp.Name, SellerUID: sp.SellerUID, SellerClass: sp.SellerClass, Active: true}
		if err := products.Create(ctx, p); err != nil {
			return fmt.Errorf("insert product %q: %w", sp.Name, err)
		}
		for _, v := range sp.Variants {
			if _, err := prices.ReplaceTiers(ctx, p.ID, v.PrintType, v.Size, v.Tiers); err != nil {
				return fmt.Errorf("tiers for %q %s/%s: %w", sp.Name, v.PrintType, v.Size, err)
			}
		}
		log.Printf("seeded product %d %q", p.ID, p.Name)
	}
	return nil
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	if os.Getenv("FORCE_SEED") == "true" {
		return true, nil
	}
	var p model.Product
	err := gdb.WithContext(ctx).Select("id").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("check products: %w", err)
	}
	return false, nil
}
