package handlers

import (
	"time"

	"shopapi/internal/cache"
	"shopapi/internal/config"
	"shopapi/internal/repos"
	"shopapi/internal/services"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	DB    *sqlx.DB
	Cache cache.Cache
	Auth  *services.AuthService

	AuthHandler     *AuthHandler
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	CartHandler     *CartHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, c cache.Cache) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	userRepo := repos.NewUserRepo(db)

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	authSvc := &services.AuthService{
		Users:  userRepo,
		Tokens: &services.TokenIssuer{Secret: []byte(cfg.JWTSecret), TTL: ttl},
	}
	catalogSvc := services.NewCatalogService(catRepo, prodRepo, c, cfg.CacheTTL)
	cartSvc := services.NewCartService(cartRepo)

	return &Deps{
		DB:              db,
		Cache:           c,
		Auth:            authSvc,
		AuthHandler:     &AuthHandler{Auth: authSvc},
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		CartHandler:     &CartHandler{Cart: cartSvc},
	}
}
