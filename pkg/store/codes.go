package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// CodeGenerator hands out unique human-readable material request codes.
type CodeGenerator interface {
	Next(ctx context.Context) (string, error)
}

// SequenceCodeGenerator calls the generate_request_code() database function
// created by the migrations.
type SequenceCodeGenerator struct {
	DB *gorm.DB
}

func (g SequenceCodeGenerator) Next(ctx context.Context) (string, error) {
	var code string
	if err := g.DB.WithContext(ctx).Raw("SELECT generate_request_code()").Scan(&code).Error; err != nil {
		return "", err
	}
	if code == "" {
		return "", errors.New("generate_request_code returned no code")
	}
	return code, nil
}

// CodeFunc adapts a plain function to CodeGenerator.
type CodeFunc func(ctx context.Context) (string, error)

func (f CodeFunc) Next(ctx context.Context) (string, error) { return f(ctx) }
