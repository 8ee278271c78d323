package inventory

import (
	"errors"
	"time"

	"storesight-backend/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("product not found")
	ErrValidation = errors.New("missing required fields")
)

// ProductStore is the persistence adapter for product records. Identifiers
// are store-assigned and immutable.
type ProductStore struct {
	db *gorm.DB
}

func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

// Create rejects zero values for all four required fields.
func (s *ProductStore) Create(store, dept, size, typ int) (*models.Product, error) {
	if store == 0 || dept == 0 || size == 0 || typ == 0 {
		return nil, ErrValidation
	}

	p := models.Product{
		Store: store,
		Dept:  dept,
		Size:  size,
		Type:  typ,
		Date:  time.Now(),
	}
	if err := s.db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) List() ([]models.Product, error) {
	var products []models.Product
	if err := s.db.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateFields carries the mutable product fields. A zero value means "not
// provided" and leaves the stored field untouched, so a legitimate update to
// zero is not possible. Known quirk, kept for wire compatibility.
type UpdateFields struct {
	Store int `json:"store"`
	Dept  int `json:"dept"`
	Size  int `json:"size"`
}

func (s *ProductStore) Update(id string, fields UpdateFields) error {
	var p models.Product
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if fields.Store != 0 {
		p.Store = fields.Store
	}
	if fields.Dept != 0 {
		p.Dept = fields.Dept
	}
	if fields.Size != 0 {
		p.Size = fields.Size
	}

	return s.db.Save(&p).Error
}

func (s *ProductStore) Delete(id string) (bool, error) {
	var p models.Product
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	if err := s.db.Delete(&p).Error; err != nil {
		return false, err
	}
	return true, nil
}

// BulkInsert persists all rows in one transaction. Either every row is
// stored or none of them are.
func (s *ProductStore) BulkInsert(rows []ProductRow) ([]models.Product, error) {
	products := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		if r.Store == 0 || r.Dept == 0 || r.Size == 0 || r.Type == 0 {
			return nil, ErrValidation
		}
		products = append(products, models.Product{
			Store: r.Store,
			Dept:  r.Dept,
			Size:  r.Size,
			Type:  r.Type,
			Date:  r.Date,
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range products {
			if err := tx.Create(&products[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}
