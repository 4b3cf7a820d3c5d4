// Package directory lists households and their creative tonies for the
// frontend's target picker.
package directory

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tonielift/tonielift/internal/infrastructure/tonie"
)

// APIClient is the slice of the Tonie cloud client the lookup needs.
// Satisfied by *tonie.Client.
type APIClient interface {
	Households(ctx context.Context, accessToken string) ([]tonie.Household, error)
	CreativeTonies(ctx context.Context, accessToken, householdID string) ([]tonie.CreativeTonie, error)
}

type Service struct {
	api APIClient
}

func NewService(api APIClient) *Service {
	return &Service{api: api}
}

// Households returns the account's households with their creative tonies
// filled in. Per-household listings run concurrently; the joined output keeps
// the original household order. A failed per-household lookup degrades to an
// empty list rather than aborting the whole response.
func (s *Service) Households(ctx context.Context, accessToken string) ([]tonie.Household, error) {
	households, err := s.api.Households(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	listings := make([][]tonie.CreativeTonie, len(households))
	var wg sync.WaitGroup
	for i := range households {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tonies, err := s.api.CreativeTonies(ctx, accessToken, households[i].ID)
			if err != nil {
				log.Warn().Err(err).Str("household_id", households[i].ID).
					Msg("Creative tonie listing failed, returning empty list")
				return
			}
			listings[i] = tonies
		}(i)
	}
	wg.Wait()

	for i := range households {
		if listings[i] == nil {
			listings[i] = []tonie.CreativeTonie{}
		}
		households[i].CreativeTonies = listings[i]
	}
	return households, nil
}
