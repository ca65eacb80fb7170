package events

import (
	"context"
	"crew-route-service/internal/domain"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func arrival() domain.RouteEvent {
	return domain.RouteEvent{
		Type:       domain.EventArrived,
		RouteID:    "r1",
		CompanyID:  "co1",
		CrewID:     "k1",
		CustomerID: "c1",
		Status:     domain.StopInProgress,
		At:         time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
	}
}

func TestRedisPublisher(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	sub := rdb.Subscribe(ctx, ChannelName("r1"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, NewRedisPublisher(rdb).Publish(ctx, arrival()))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "route:r1", msg.Channel)

	var got domain.RouteEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, domain.EventArrived, got.Type)
	assert.Equal(t, "c1", got.CustomerID)
}

func TestKafkaPublisher(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, cfg)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var evt domain.RouteEvent
		if err := json.Unmarshal(val, &evt); err != nil {
			return err
		}
		if evt.RouteID != "r1" || evt.Type != domain.EventArrived {
			return errors.New("unexpected event payload")
		}
		return nil
	})
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewKafkaPublisherWithProducer(sp, "route-events")
	defer p.Close()

	require.NoError(t, p.Publish(context.Background(), arrival()))
	assert.ErrorIs(t, p.Publish(context.Background(), arrival()), sarama.ErrOutOfBrokers)
}

type failing struct{ err error }

func (f failing) Publish(ctx context.Context, evt domain.RouteEvent) error { return f.err }

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	m := Multi{NopPublisher{}, failing{boom}, NopPublisher{}}

	err := m.Publish(context.Background(), arrival())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, Multi{NopPublisher{}}.Publish(context.Background(), arrival()))
}
