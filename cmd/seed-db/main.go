// Command seed-db loads the demo catalog, the launch coupons, and an admin
// API key into the database.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/craftkart/storefront-api/internal/domain/auth"
	"github.com/craftkart/storefront-api/internal/domain/coupon"
	"github.com/craftkart/storefront-api/internal/domain/product"
	"github.com/craftkart/storefront-api/internal/repository"
)

type productJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	ComboOffer  bool            `json:"comboOffer"`
	Variants    []struct {
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
	} `json:"variants"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or KART_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or KART_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("KART_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or KART_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("KART_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCoupons(ctx, repository.NewCouponRepository(pool)); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	if err := seedAPIKey(ctx, repository.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	for _, pj := range products {
		p := product.Product{
			ID:          pj.ID,
			Name:        pj.Name,
			Description: pj.Description,
			Price:       pj.Price,
			Category:    pj.Category,
			Image:       pj.Image,
			ComboOffer:  pj.ComboOffer,
		}
		for _, v := range pj.Variants {
			p.Variants = append(p.Variants, product.Variant{Name: v.Name, Price: v.Price})
		}
		if err := repo.Upsert(ctx, p); err != nil {
			return err
		}
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func seedCoupons(ctx context.Context, repo *repository.CouponRepository) error {
	expiry := time.Now().AddDate(1, 0, 0)

	rules := []coupon.Rule{
		{
			Code:         "WELCOME26",
			DiscountType: coupon.DiscountPercentage,
			Value:        decimal.NewFromInt(20),
			MaxDiscount:  decimal.NewFromInt(500),
			ExpiresAt:    expiry,
			Active:       true,
			Description:  "Welcome offer: 20% off above the welcome minimum",
		},
		{
			Code:         "SAVE10",
			DiscountType: coupon.DiscountPercentage,
			Value:        decimal.NewFromInt(10),
			ExpiresAt:    expiry,
			Active:       true,
			Description:  "10% off your order",
		},
		{
			Code:         "FLAT150",
			DiscountType: coupon.DiscountFlat,
			Value:        decimal.NewFromInt(150),
			MinPurchase:  decimal.NewFromInt(999),
			ExpiresAt:    expiry,
			Active:       true,
			Description:  "Flat 150 off orders above 999",
		},
		{
			Code:         "GIFT3",
			DiscountType: coupon.DiscountBuyTwoGetOne,
			ExpiresAt:    expiry,
			Active:       true,
			Description:  "Buy 2 get 1: cheapest item free",
		},
	}

	for _, rule := range rules {
		if err := repo.Upsert(ctx, rule); err != nil {
			return err
		}
	}

	slog.Info("coupons seeded", slog.Int("count", len(rules)))
	return nil
}

func seedAPIKey(ctx context.Context, repo *repository.APIKeyRepository, apiKey, pepper string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))

	err := repo.Upsert(ctx, auth.APIKeyInfo{
		ID:      uuid.New().String(),
		KeyHash: hex.EncodeToString(mac.Sum(nil)),
		Name:    "seed-admin",
	})
	if err != nil {
		return err
	}

	slog.Info("api key seeded")
	return nil
}
