package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"go-storefront/internal/pricing"
)

func init() {
	// Prices and ratings serialize as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Size is a flat lookup table referenced by many products.
type Size struct {
	ID          uint   `gorm:"primaryKey" json:"_id"`
	Name        string `gorm:"type:varchar(50)" json:"name"`
	Description string `gorm:"type:varchar(200)" json:"description"`
}

func (Size) TableName() string {
	return "sizes"
}

type Color struct {
	ID      uint   `gorm:"primaryKey" json:"_id"`
	Name    string `gorm:"type:varchar(50);not null" json:"name"`
	HexCode string `gorm:"type:varchar(7)" json:"hex_code"`
}

func (Color) TableName() string {
	return "colors"
}

// Category forms a tree via ParentID. Slug is derived from the name plus
// the parent chain and recomputed whenever either changes.
type Category struct {
	ID       uint    `gorm:"primaryKey" json:"_id"`
	Name     string  `gorm:"type:varchar(50)" json:"name"`
	ParentID *uint   `gorm:"index" json:"parent"`
	Slug     string  `gorm:"type:varchar(255)" json:"slug"`
	Genres   []Genre `gorm:"foreignKey:CategoryID" json:"genres"`
}

func (Category) TableName() string {
	return "categories"
}

type Genre struct {
	ID         uint   `gorm:"primaryKey" json:"_id"`
	Name       string `gorm:"type:varchar(50)" json:"name"`
	Slug       string `gorm:"type:varchar(255)" json:"slug"`
	CategoryID *uint  `gorm:"index" json:"category"`
}

func (Genre) TableName() string {
	return "genres"
}

// Product badges shown on storefront cards.
const (
	BadgeFeatured = "Featured"
	BadgeTopRated = "Top Rated"
	BadgeSale     = "Sale"
)

func ValidBadge(badge string) bool {
	switch badge {
	case "", BadgeFeatured, BadgeTopRated, BadgeSale:
		return true
	}
	return false
}

// Product is the root of catalog identity. Rating and ReviewCount are
// derived from reviews; SalePrice is derived once from Price and
// DiscountPercentage (see BeforeSave).
type Product struct {
	ID                 uint                `gorm:"primaryKey" json:"_id"`
	UserID             *uint               `gorm:"index" json:"user"`
	Name               string              `gorm:"type:varchar(200)" json:"name"`
	Thumbnail          string              `gorm:"type:varchar(255);default:'/placeholder.png'" json:"thumbnail"`
	Brand              string              `gorm:"type:varchar(200)" json:"brand"`
	Description        string              `gorm:"type:text" json:"description"`
	Rating             decimal.NullDecimal `gorm:"type:decimal(7,2)" json:"rating"`
	ReviewCount        uint                `gorm:"default:0" json:"review_count"`
	Price              decimal.Decimal     `gorm:"type:decimal(7,2)" json:"price"`
	SalePrice          decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"sale_price"`
	DiscountPercentage decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"discount_percentage"`
	CountInStock       int                 `gorm:"default:0" json:"countInStock"`
	IsFeatured         bool                `gorm:"default:false" json:"is_featured"`
	Badge              string              `gorm:"type:varchar(20)" json:"badge"`
	Colors             []Color             `gorm:"many2many:product_colors" json:"colors"`
	Sizes              []Size              `gorm:"many2many:product_sizes" json:"size"`
	Categories         []Category          `gorm:"many2many:product_categories" json:"categories"`
	Images             []ImageAlbum        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"image_albums"`
	Reviews            []Review            `gorm:"foreignKey:ProductID" json:"reviews"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// BeforeSave derives SalePrice the first time a discount is present. It is
// never recomputed while populated; callers clear SalePrice to refresh it.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.DiscountPercentage.Valid && !p.SalePrice.Valid && p.DiscountPercentage.Decimal.IsPositive() {
		p.SalePrice = decimal.NewNullDecimal(pricing.SalePrice(p.Price, p.DiscountPercentage.Decimal))
	}
	return nil
}

// ImageAlbum is one gallery image of a product.
type ImageAlbum struct {
	ID        uint   `gorm:"primaryKey" json:"_id"`
	Image     string `gorm:"type:varchar(255)" json:"image"`
	ProductID *uint  `gorm:"index" json:"product"`
}

func (ImageAlbum) TableName() string {
	return "image_albums"
}

// DiscountOffer is a standalone promotion with its own price window. Its
// sale price is set by hand, not derived.
type DiscountOffer struct {
	ID           uint                `gorm:"primaryKey" json:"_id"`
	Name         string              `gorm:"type:varchar(200)" json:"name"`
	Thumbnail    string              `gorm:"type:varchar(255)" json:"thumbnail"`
	Price        decimal.NullDecimal `gorm:"type:decimal(7,2)" json:"price"`
	Description  string              `gorm:"type:text" json:"description"`
	OnSale       bool                `gorm:"default:false" json:"on_sale"`
	SalePrice    decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"sale_price"`
	CountInStock int                 `gorm:"default:0" json:"countInStock"`
	StartDate    *time.Time          `json:"start_date"`
	EndDate      *time.Time          `json:"end_date"`
}

func (DiscountOffer) TableName() string {
	return "discount_offers"
}

// Review belongs to one product and one user; both survive as NULL when
// the referenced row is deleted.
type Review struct {
	ID        uint            `gorm:"primaryKey" json:"_id"`
	ProductID *uint           `gorm:"index" json:"product"`
	UserID    *uint           `gorm:"index" json:"user"`
	Name      string          `gorm:"type:varchar(200)" json:"name"`
	Rating    decimal.Decimal `gorm:"type:decimal(7,2)" json:"rating"`
	Comment   string          `gorm:"type:text" json:"comment"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (Review) TableName() string {
	return "reviews"
}
