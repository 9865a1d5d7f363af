package app

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"damage-vision/internal/domain/entity"
)

// runAnalyzers запускает всех провайдеров параллельно и помечает каждую
// детекцию именем провайдера. Сбой одного провайдера не прерывает
// остальных, ошибка возвращается только если не ответил никто.
func (s *AssessmentService) runAnalyzers(ctx context.Context, data []byte, mimeType string) ([]entity.Damage, error) {
	var (
		mu      sync.Mutex
		all     []entity.Damage
		lastErr error
		ok      bool
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, analyzer := range s.analyzers {
		analyzer := analyzer
		g.Go(func() error {
			damages, err := analyzer.DetectDamages(gctx, data, mimeType)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				s.log.Warn("analyzer failed",
					zap.String("provider", analyzer.Name()),
					zap.Error(err))
				lastErr = err
				return nil
			}

			ok = true
			for i := range damages {
				damages[i].DetectedBy = []string{analyzer.Name()}
			}
			all = append(all, damages...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if !ok && lastErr != nil {
		return nil, lastErr
	}
	return all, nil
}
