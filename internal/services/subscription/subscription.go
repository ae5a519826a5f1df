// Package subscription содержит читающую бизнес-логику подписок с кешем
// и явную отмену. Источник истины — запись в базе; кеш только ускоряет
// горячий путь проверки доступа.
package subscription

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cinexnema-cyber/teste-0101-sub001/internal/lib/sl"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/models"
)

// cacheTTL короткий: решение о доступе не должно подолгу переживать
// изменение записи в базе.
const cacheTTL = time.Minute

// CacheKey возвращает ключ кеша подписки учётной записи.
func CacheKey(accountUID string) string {
	return fmt.Sprintf("subscription:%s", accountUID)
}

// SubscriptionRepository определяет методы хранилища подписок.
type SubscriptionRepository interface {
	// GetSubscription возвращает подписку учётной записи либо (nil, nil).
	GetSubscription(ctx context.Context, accountUID string) (*models.Subscription, error)
	// CancelSubscription переводит активную подписку в cancelled.
	CancelSubscription(ctx context.Context, accountUID string) (int, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// Service реализует чтение и отмену подписок.
type Service struct {
	repo  SubscriptionRepository
	cache Cache
	log   *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo SubscriptionRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// GetForAccount возвращает подписку учётной записи, используя кеш или
// хранилище. Отсутствие подписки возвращается как (nil, nil) и тоже
// кешируется пустой записью со статусом none.
func (s *Service) GetForAccount(ctx context.Context, accountUID string) (*models.Subscription, error) {
	cacheKey := CacheKey(accountUID)

	var cached models.Subscription
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read subscription cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		if cached.AccountUID == "" {
			return nil, nil
		}
		return &cached, nil
	}

	sub, err := s.repo.GetSubscription(ctx, accountUID)
	if err != nil {
		return nil, err
	}

	toCache := models.Subscription{}
	if sub != nil {
		toCache = *sub
	}
	if err := s.cache.Set(cacheKey, toCache, cacheTTL); err != nil {
		s.log.Warn("failed to cache subscription", slog.String("key", cacheKey), sl.Err(err))
	}
	return sub, nil
}

// Cancel выполняет явную отмену подписки и инвалидирует кеш.
// Возвращает true, если активная подписка была отменена.
func (s *Service) Cancel(ctx context.Context, accountUID string) (bool, error) {
	count, err := s.repo.CancelSubscription(ctx, accountUID)
	if err != nil {
		return false, err
	}

	cacheKey := CacheKey(accountUID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate subscription cache", slog.String("key", cacheKey), sl.Err(err))
	}

	if count > 0 {
		s.log.Info("subscription cancelled", slog.String("account_uid", accountUID))
	}
	return count > 0, nil
}
