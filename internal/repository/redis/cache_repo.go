package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sisaket-charity/go-backend/internal/cfg"
	"github.com/sisaket-charity/go-backend/internal/domain"
	"github.com/sisaket-charity/go-backend/internal/repository/redis/converter"
	"github.com/sisaket-charity/go-backend/pkg/clients"
	"github.com/sisaket-charity/go-backend/pkg/e"
	"github.com/sisaket-charity/go-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

const (
	activeListKey = "products:active"
	fullListKey   = "products:all"
)

// CacheRepo кэширует выборки каталога в Redis.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.ProductListConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductListConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProductList возвращает закэшированную выборку каталога.
// Промах кэша возвращает (nil, nil), ошибки Redis логируются и не фатальны.
func (c *CacheRepo) GetProductList(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	key := c.listKey(activeOnly)

	data, err := c.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil // cache miss
		}

		c.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models, err := c.unmarshalProductList(data)
	if err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		if dErr := c.client.Client.Del(context.Background(), key).Err(); dErr != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), dErr))
		}
		return nil, nil // трактуем битую запись как промах
	}

	return c.conv.ToEntities(models), nil
}

// SetProductList кэширует выборку каталога с заданным TTL.
func (c *CacheRepo) SetProductList(ctx context.Context, activeOnly bool, products []domain.Product) error {
	data, err := c.marshalProductList(c.conv.ToRedisModels(products))
	if err != nil {
		c.logger.Warnf("Failed to marshal product list for caching: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil
	}

	if err := c.client.Client.Set(ctx, c.listKey(activeOnly), data, c.cfg.ProductTTL).Err(); err != nil {
		c.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// InvalidateProductLists сбрасывает обе кэшированные выборки каталога.
func (c *CacheRepo) InvalidateProductLists(ctx context.Context) error {
	if err := c.client.Client.Del(ctx, activeListKey, fullListKey).Err(); err != nil {
		c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// marshalProductList сериализует выборку в JSON для кэша
func (c *CacheRepo) marshalProductList(models []converter.ProductRedisModel) ([]byte, error) {
	return json.Marshal(models)
}

// unmarshalProductList десериализует JSON из кэша в модели товаров
func (c *CacheRepo) unmarshalProductList(data []byte) ([]converter.ProductRedisModel, error) {
	var models []converter.ProductRedisModel
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, err
	}

	return models, nil
}

// listKey возвращает Redis-ключ для выборки каталога
func (c *CacheRepo) listKey(activeOnly bool) string {
	if activeOnly {
		return activeListKey
	}
	return fullListKey
}
