package redis

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"course-payments/internal/domain"
	"course-payments/internal/domain/model"
	"course-payments/internal/domain/ports/repository"
)

var _ repository.IntentRepository = (*IntentRepo)(nil)

// IntentRepo is the Redis-backed pending-transaction store for Webpay
// purchases. Records live under pending_<buyOrder> for at most
// model.IntentTTL and are consumed exactly once.
type IntentRepo struct {
	client *Client
}

func NewIntentRepo(client *Client) *IntentRepo {
	return &IntentRepo{client: client}
}

func (r *IntentRepo) key(buyOrder string) string {
	return "pending_" + buyOrder
}

func (r *IntentRepo) Put(ctx context.Context, intent *model.PurchaseIntent) error {
	if err := intent.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(intent)
	if err != nil {
		return err
	}
	// NX: at most one live intent per buy order.
	ok, err := r.client.cli.SetNX(ctx, r.key(intent.BuyOrder), data, model.IntentTTL).Result()
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrAlreadyExists
	}
	return nil
}

// luaConsume fetches and deletes atomically so a replayed return URL cannot
// observe the intent a second time.
var luaConsume = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v then
	redis.call("DEL", KEYS[1])
end
return v`)

func (r *IntentRepo) Consume(ctx context.Context, buyOrder string) (*model.PurchaseIntent, error) {
	if buyOrder == "" {
		return nil, domain.ErrInvalidArgument
	}
	res, err := luaConsume.Run(ctx, r.client.cli, []string{r.key(buyOrder)}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrIntentNotFound
		}
		return nil, err
	}
	raw, ok := res.(string)
	if !ok || raw == "" {
		return nil, domain.ErrIntentNotFound
	}
	var intent model.PurchaseIntent
	if err := json.Unmarshal([]byte(raw), &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}
