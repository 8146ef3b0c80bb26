// Package view renders domain records into their api representation.
package view

import (
	"strings"
	"time"

	"github.com/infinitepl/infinite/internal/domain"
	"github.com/montanaflynn/stats"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Renderer carries the request-derived context needed to build image urls.
// An empty BaseURL renders relative references.
type Renderer struct {
	BaseURL  string
	MediaURL string
}

func NewRenderer(baseURL, mediaURL string) Renderer {
	if mediaURL == "" {
		mediaURL = "/media/"
	}
	return Renderer{BaseURL: strings.TrimRight(baseURL, "/"), MediaURL: mediaURL}
}

// ImageURL resolves a stored image reference, nil when unset
func (r Renderer) ImageURL(ref string) *string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return &ref
	}
	rel := ref
	if !strings.HasPrefix(ref, "/") {
		rel = strings.TrimRight(r.MediaURL, "/") + "/" + ref
	}
	if r.BaseURL == "" {
		return &rel
	}
	abs := r.BaseURL + rel
	return &abs
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsStaff  bool   `json:"is_staff"`
}

func NewUser(u domain.User) User {
	return User{ID: u.ID, Username: u.Username, Email: u.Email, IsStaff: u.IsStaff}
}

type Review struct {
	ID        int64     `json:"id"`
	Product   int64     `json:"product"`
	User      User      `json:"user"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewReview(rv domain.Review) Review {
	return Review{
		ID:        rv.ID,
		Product:   rv.ProductID,
		User:      NewUser(rv.User),
		Rating:    rv.Rating,
		Comment:   rv.Comment,
		CreatedAt: rv.CreatedAt,
		UpdatedAt: rv.UpdatedAt,
	}
}

func NewReviews(rows []domain.Review) []Review {
	return lo.Map(rows, func(rv domain.Review, _ int) Review { return NewReview(rv) })
}

// AverageRating arithmetic mean of the ratings, 0 without reviews
func AverageRating(reviews []domain.Review) float64 {
	ratings := stats.LoadRawData(lo.Map(reviews, func(rv domain.Review, _ int) int { return rv.Rating }))
	mean, err := stats.Mean(ratings)
	if err != nil {
		return 0
	}
	return mean
}

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Density       float64         `json:"density"`
	Size          string          `json:"size"`
	Color         string          `json:"color"`
	Price         decimal.Decimal `json:"price"`
	Image         *string         `json:"image"`
	Description   string          `json:"description"`
	Stock         int             `json:"stock"`
	CreatedAt     time.Time       `json:"created_at"`
	Reviews       []Review        `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int             `json:"review_count"`
}

// Product expects p.Reviews to be loaded with their authors
func (r Renderer) Product(p domain.Product) Product {
	reviews := NewReviews(p.Reviews)
	if reviews == nil {
		reviews = []Review{}
	}
	return Product{
		ID:            p.ID,
		Name:          p.Name,
		Density:       p.Density,
		Size:          p.Size,
		Color:         p.Color,
		Price:         p.Price,
		Image:         r.ImageURL(p.Image),
		Description:   p.Description,
		Stock:         p.Stock,
		CreatedAt:     p.CreatedAt,
		Reviews:       reviews,
		AverageRating: AverageRating(p.Reviews),
		ReviewCount:   len(p.Reviews),
	}
}

func (r Renderer) Products(rows []domain.Product) []Product {
	return lo.Map(rows, func(p domain.Product, _ int) Product { return r.Product(p) })
}

type Pillow struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Color       string          `json:"color"`
	Size        string          `json:"size"`
	Stock       int             `json:"stock"`
	Image       *string         `json:"image"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (r Renderer) Pillow(p domain.Pillow) Pillow {
	return Pillow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Color:       p.Color,
		Size:        p.Size,
		Stock:       p.Stock,
		Image:       r.ImageURL(p.Image),
		CreatedAt:   p.CreatedAt,
	}
}

func (r Renderer) Pillows(rows []domain.Pillow) []Pillow {
	return lo.Map(rows, func(p domain.Pillow, _ int) Pillow { return r.Pillow(p) })
}

type EPESheet struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Size        string          `json:"size"`
	Stock       int             `json:"stock"`
	Image       *string         `json:"image"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (r Renderer) EPESheet(s domain.EPESheet) EPESheet {
	return EPESheet{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Price:       s.Price,
		Size:        s.Size,
		Stock:       s.Stock,
		Image:       r.ImageURL(s.Image),
		CreatedAt:   s.CreatedAt,
	}
}

func (r Renderer) EPESheets(rows []domain.EPESheet) []EPESheet {
	return lo.Map(rows, func(s domain.EPESheet, _ int) EPESheet { return r.EPESheet(s) })
}

type Order struct {
	ID          int64             `json:"id"`
	User        User              `json:"user"`
	Products    domain.OrderLines `json:"products"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Address     string            `json:"address"`
	Phone       string            `json:"phone"`
	Paid        bool              `json:"paid"`
	CreatedAt   time.Time         `json:"created_at"`
}

// NewOrder expects o.User to be loaded
func NewOrder(o domain.Order) Order {
	lines := o.Products
	if lines == nil {
		lines = domain.OrderLines{}
	}
	return Order{
		ID:          o.ID,
		User:        NewUser(o.User),
		Products:    lines,
		TotalAmount: o.TotalAmount,
		Address:     o.Address,
		Phone:       o.Phone,
		Paid:        o.Paid,
		CreatedAt:   o.CreatedAt,
	}
}

func NewOrders(rows []domain.Order) []Order {
	return lo.Map(rows, func(o domain.Order, _ int) Order { return NewOrder(o) })
}
