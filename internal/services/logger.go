package services

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/gd-exchange/internal/domain"
)

type ServiceIdentifier interface {
	ID() string
}

// ServiceLogger tags every event with the emitting service.
type ServiceLogger struct {
	logger zerolog.Logger
}

func NewServiceLogger(svc ServiceIdentifier) *ServiceLogger {
	return &ServiceLogger{
		logger: log.With().Str("service", svc.ID()).Logger(),
	}
}

// ForChain returns a logger that also carries the chain name and id.
func (l *ServiceLogger) ForChain(chain domain.ChainID) *ServiceLogger {
	return &ServiceLogger{
		logger: l.logger.With().
			Str("chain", chain.String()).
			Uint64("chainId", uint64(chain)).
			Logger(),
	}
}

func (l *ServiceLogger) Info() *zerolog.Event {
	return l.logger.Info()
}

func (l *ServiceLogger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

func (l *ServiceLogger) Error() *zerolog.Event {
	return l.logger.Error()
}
