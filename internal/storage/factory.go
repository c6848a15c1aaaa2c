package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/common"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/storage/badger"
	"github.com/ternarybob/ragchain/internal/storage/qdrant"
)

// NewVectorIndex creates the vector index selected by config.Backend
func NewVectorIndex(logger arbor.ILogger, config *common.VectorDBConfig) (interfaces.VectorIndex, error) {
	switch config.Backend {
	case "qdrant", "":
		logger.Debug().
			Str("url", config.URL).
			Str("collection", config.Collection).
			Msg("Using Qdrant vector index")

		return qdrant.NewClient(config.URL, config.Collection,
			qdrant.WithAPIKey(config.APIKey),
			qdrant.WithTimeout(common.ParseDuration(config.Timeout, qdrant.DefaultTimeout)),
			qdrant.WithLogger(logger),
		), nil

	case "badger":
		db, err := badger.NewBadgerDB(logger, config.BadgerPath)
		if err != nil {
			return nil, err
		}

		logger.Debug().
			Str("path", config.BadgerPath).
			Str("collection", config.Collection).
			Msg("Using embedded Badger vector index")

		return badger.NewVectorStorage(db, config.Collection, logger), nil
	}

	return nil, fmt.Errorf("unsupported vector index backend: %s (expected 'qdrant' or 'badger')", config.Backend)
}
