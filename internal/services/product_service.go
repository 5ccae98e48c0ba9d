package services

import (
	"spiceexport/internal/catalog"
	"spiceexport/internal/models"
)

// ProductService exposes the read-only product catalog.
type ProductService struct {
	catalog *catalog.Catalog
}

// NewProductService creates a new ProductService.
func NewProductService(cat *catalog.Catalog) *ProductService {
	return &ProductService{catalog: cat}
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() []catalog.Product {
	return s.catalog.All()
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*catalog.Product, error) {
	p, ok := s.catalog.Lookup(id)
	if !ok {
		return nil, &models.NotFoundError{Entity: "product", ID: id}
	}
	return &p, nil
}
