//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"mcpshadow/internal/domain"
)

func InitializeApplication(ctx context.Context, settings domain.Settings, logging LoggingConfig) (*Application, error) {
	wire.Build(AppSet)
	return nil, nil
}
