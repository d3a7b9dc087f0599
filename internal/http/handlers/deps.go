package handlers

import (
	"github.com/jmoiron/sqlx"

	"marketplace/internal/config"
	"marketplace/internal/metrics"
	"marketplace/internal/pricelist"
	"marketplace/internal/services"
)

type Deps struct {
	Config  config.Config
	Auth    *services.AuthService
	Metrics *metrics.Metrics

	AuthHandler     *AuthHandler
	ShopHandler     *ShopHandler
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	OfferHandler    *OfferHandler
	ImportHandler   *ImportHandler
	ContactHandler  *ContactHandler
	BasketHandler   *BasketHandler
	OrderHandler    *OrderHandler
	PartnerHandler  *PartnerHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, m *metrics.Metrics) *Deps {
	if m == nil {
		m = metrics.New()
	}
	authSvc := services.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL)
	catalogSvc := services.NewCatalogService(db)
	importSvc := services.NewImportService(db, pricelist.NewFetcher(cfg.ImportTimeout, cfg.ImportMaxBytes), m)
	basketSvc := services.NewBasketService(db, m)
	orderSvc := services.NewOrderService(db, m)
	contactSvc := services.NewContactService(db)

	return &Deps{
		Config:  cfg,
		Auth:    authSvc,
		Metrics: m,

		AuthHandler:     &AuthHandler{Auth: authSvc},
		ShopHandler:     &ShopHandler{Catalog: catalogSvc},
		CategoryHandler: &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:  &ProductHandler{Catalog: catalogSvc},
		OfferHandler:    &OfferHandler{Catalog: catalogSvc},
		ImportHandler:   &ImportHandler{Imports: importSvc},
		ContactHandler:  &ContactHandler{Contacts: contactSvc},
		BasketHandler:   &BasketHandler{Basket: basketSvc},
		OrderHandler:    &OrderHandler{Order: orderSvc},
		PartnerHandler:  &PartnerHandler{Order: orderSvc, Catalog: catalogSvc},
	}
}
