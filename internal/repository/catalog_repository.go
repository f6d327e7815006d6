package repository

import (
	"github.com/lshigami/nodo-plus/internal/model"
	"gorm.io/gorm"
)

type CatalogRepository interface {
	ListActive() ([]model.Catalog, error)
	ListAll() ([]model.Catalog, error)
	FindByID(id string) (*model.Catalog, error)
	Create(item *model.Catalog) error
	Update(item *model.Catalog) error
	Delete(id string) (int64, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListActive() ([]model.Catalog, error) {
	var items []model.Catalog
	err := r.db.Where("active = ?", true).Order("type ASC").Order("sort_order ASC").Find(&items).Error
	return items, err
}

func (r *catalogRepository) ListAll() ([]model.Catalog, error) {
	var items []model.Catalog
	err := r.db.Order("type ASC").Order("sort_order ASC").Find(&items).Error
	return items, err
}

func (r *catalogRepository) FindByID(id string) (*model.Catalog, error) {
	var item model.Catalog
	err := r.db.First(&item, "id = ?", id).Error
	return &item, err
}

func (r *catalogRepository) Create(item *model.Catalog) error {
	return r.db.Create(item).Error
}

// Update writes every column, so a false Active or zero Order are stored.
func (r *catalogRepository) Update(item *model.Catalog) error {
	return r.db.Model(item).Select("type", "label", "value", "sort_order", "active").Updates(item).Error
}

func (r *catalogRepository) Delete(id string) (int64, error) {
	res := r.db.Delete(&model.Catalog{}, "id = ?", id)
	return res.RowsAffected, res.Error
}
