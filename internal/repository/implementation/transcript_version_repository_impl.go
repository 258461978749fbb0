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

type TranscriptVersionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TranscriptMapper
}

func NewTranscriptVersionRepository(db *gorm.DB) contract.TranscriptVersionRepository {
	return &TranscriptVersionRepositoryImpl{
		db:     db,
		mapper: mapper.NewTranscriptMapper(),
	}
}

func (r *TranscriptVersionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TranscriptVersionRepositoryImpl) Create(ctx context.Context, version *entity.TranscriptVersion) error {
	m := r.mapper.ToModel(version)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*version = *r.mapper.ToEntity(m)
	return nil
}

func (r *TranscriptVersionRepositoryImpl) Update(ctx context.Context, version *entity.TranscriptVersion) error {
	m := r.mapper.ToModel(version)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*version = *r.mapper.ToEntity(m)
	return nil
}

func (r *TranscriptVersionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.TranscriptVersion{}, id).Error
}

func (r *TranscriptVersionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TranscriptVersion, error) {
	var m model.TranscriptVersion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TranscriptVersionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.TranscriptVersion, error) {
	var models []*model.TranscriptVersion
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TranscriptVersionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TranscriptVersion{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
