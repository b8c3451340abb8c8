package repository

import (
	"github.com/flexprice/contractflow/internal/domain/addon"
	"github.com/flexprice/contractflow/internal/domain/contract"
	"github.com/flexprice/contractflow/internal/domain/revision"
	"github.com/flexprice/contractflow/internal/domain/signature"
	"github.com/flexprice/contractflow/internal/logger"
	"github.com/flexprice/contractflow/internal/postgres"
	postgresRepo "github.com/flexprice/contractflow/internal/repository/postgres"
	"go.uber.org/fx"
)

// Module provides every repository to the fx graph
func Module() fx.Option {
	return fx.Provide(
		NewContractRepository,
		NewRevisionRepository,
		NewAddonRepository,
		NewSignatureRepository,
		NewSigningRequestRepository,
		NewProviderEventRepository,
	)
}

func NewContractRepository(db *postgres.DB, logger *logger.Logger) contract.Repository {
	return postgresRepo.NewContractRepository(db, logger)
}

func NewRevisionRepository(db *postgres.DB, logger *logger.Logger) revision.Repository {
	return postgresRepo.NewRevisionRepository(db, logger)
}

func NewAddonRepository(db *postgres.DB, logger *logger.Logger) addon.Repository {
	return postgresRepo.NewAddonRepository(db, logger)
}

func NewSignatureRepository(db *postgres.DB, logger *logger.Logger) signature.Repository {
	return postgresRepo.NewSignatureRepository(db, logger)
}

func NewSigningRequestRepository(db *postgres.DB, logger *logger.Logger) signature.SigningRequestRepository {
	return postgresRepo.NewSigningRequestRepository(db, logger)
}

func NewProviderEventRepository(db *postgres.DB, logger *logger.Logger) signature.ProviderEventRepository {
	return postgresRepo.NewProviderEventRepository(db, logger)
}
