package implementation

import (
	"context"
	"errors"

	"ai-conversations-be/internal/entity"
	"ai-conversations-be/internal/mapper"
	"ai-conversations-be/internal/model"
	"ai-conversations-be/internal/repository/contract"
	"ai-conversations-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemoryVersionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MemoryMapper
}

func NewMemoryVersionRepository(db *gorm.DB) contract.MemoryVersionRepository {
	return &MemoryVersionRepositoryImpl{
		db:     db,
		mapper: mapper.NewMemoryMapper(),
	}
}

func (r *MemoryVersionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MemoryVersionRepositoryImpl) Create(ctx context.Context, version *entity.MemoryVersion) error {
	m := r.mapper.ToModel(version)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	restored := r.mapper.ToEntity(m)
	restored.Items = version.Items // keep embeddings, the jsonb roundtrip drops them
	*version = *restored
	return nil
}

func (r *MemoryVersionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.MemoryVersion{}, id).Error
}

func (r *MemoryVersionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.MemoryVersion, error) {
	var m model.MemoryVersion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *MemoryVersionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.MemoryVersion, error) {
	var models []*model.MemoryVersion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *MemoryVersionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.MemoryVersion{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
