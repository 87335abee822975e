package queue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soltixdb/climatix/internal/logging"
)

// RedisConfig configures the Redis Streams ingest backend
type RedisConfig struct {
	URL      string // redis://host:port[/db] or host:port
	Password string
	DB       int
	Stream   string // Stream key prefix (default: "climatix")
	Group    string // Consumer group shared by ingest consumers (default: "climatix-group")
	Consumer string // This consumer's name (default: hostname)

	// MaxLen caps each stream at roughly this many batches; 0 keeps all
	MaxLen int64
	// ClaimIdle is how long a batch may sit unacknowledged with a failed
	// consumer before another one takes it over (default: 30s)
	ClaimIdle time.Duration
}

// RedisQueue stores each ingest subject in one stream. Consumers of the
// group split the batches; a batch is XACKed only once it is stored.
type RedisQueue struct {
	client        *redis.Client
	config        RedisConfig
	subscriptions map[string]context.CancelFunc
	wg            sync.WaitGroup
	mu            sync.RWMutex
	logger        *logging.Logger
}

func newRedisQueue(cfg RedisConfig) (*RedisQueue, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{
			Addr:     cfg.URL,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if cfg.Stream == "" {
		cfg.Stream = "climatix"
	}
	if cfg.Group == "" {
		cfg.Group = "climatix-group"
	}
	if cfg.Consumer == "" {
		hostname, _ := os.Hostname()
		if hostname == "" {
			hostname = "consumer-1"
		}
		cfg.Consumer = hostname
	}
	if cfg.ClaimIdle <= 0 {
		cfg.ClaimIdle = 30 * time.Second
	}

	return &RedisQueue{
		client:        client,
		config:        cfg,
		subscriptions: make(map[string]context.CancelFunc),
		logger:        logging.With("component", "queue.redis"),
	}, nil
}

// streamName maps an ingest subject to its stream key
func (q *RedisQueue) streamName(subject string) string {
	return q.config.Stream + ":" + subject
}

func (q *RedisQueue) addArgs(subject, key string, data []byte) *redis.XAddArgs {
	values := map[string]interface{}{"data": data}
	if key != "" {
		values["key"] = key
	}
	args := &redis.XAddArgs{
		Stream: q.streamName(subject),
		ID:     "*",
		Values: values,
	}
	if q.config.MaxLen > 0 {
		args.MaxLen = q.config.MaxLen
		args.Approx = true
	}
	return args
}

// Publish appends one encoded batch to the subject's stream
func (q *RedisQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.client.XAdd(ctx, q.addArgs(subject, "", data)).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis stream %s: %w", q.streamName(subject), err)
	}
	return nil
}

// PublishBatch appends the chunks of one ingest batch in a single pipeline
func (q *RedisQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	pipe := q.client.Pipeline()
	for _, msg := range messages {
		pipe.XAdd(ctx, q.addArgs(msg.Subject, msg.Key, msg.Data))
	}

	cmds, err := pipe.Exec(ctx)
	if err != nil && len(cmds) == 0 {
		return 0, fmt.Errorf("failed to execute batch publish: %w", err)
	}

	accepted := 0
	for _, cmd := range cmds {
		if cmd.Err() == nil {
			accepted++
		}
	}
	return accepted, nil
}

// Ping round-trips a PING to the server
func (q *RedisQueue) Ping(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Subscribe joins the consumer group and reads the stream in the background
func (q *RedisQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}

	stream := q.streamName(subject)
	ctx, cancel := context.WithCancel(context.Background())

	err := q.client.XGroupCreateMkStream(ctx, stream, q.config.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		cancel()
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	q.wg.Add(1)
	go q.readStream(ctx, stream, handler)

	q.subscriptions[subject] = cancel
	return nil
}

func (q *RedisQueue) readStream(ctx context.Context, stream string, handler MessageHandler) {
	defer q.wg.Done()

	lastClaim := time.Now()
	for ctx.Err() == nil {
		if time.Since(lastClaim) >= q.config.ClaimIdle {
			q.reclaim(ctx, stream, handler)
			lastClaim = time.Now()
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			Streams:  []string{stream, ">"},
			Count:    100,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			q.logger.Warn("Stream read failed", "stream", stream, "error", err)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				q.deliver(ctx, stream, msg, handler)
			}
		}
	}
}

// reclaim takes over batches left pending longer than ClaimIdle, including
// this consumer's own failed deliveries, and retries them
func (q *RedisQueue) reclaim(ctx context.Context, stream string, handler MessageHandler) {
	start := "0-0"
	for ctx.Err() == nil {
		msgs, next, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   stream,
			Group:    q.config.Group,
			Consumer: q.config.Consumer,
			MinIdle:  q.config.ClaimIdle,
			Start:    start,
			Count:    100,
		}).Result()
		if err != nil {
			if ctx.Err() == nil {
				q.logger.Warn("Pending batch claim failed", "stream", stream, "error", err)
			}
			return
		}
		if len(msgs) > 0 {
			q.logger.Info("Retrying pending batches", "stream", stream, "count", len(msgs))
		}
		for _, msg := range msgs {
			q.deliver(ctx, stream, msg, handler)
		}
		if next == "0-0" || next == "" {
			return
		}
		start = next
	}
}

// deliver hands one batch to handler and acknowledges it on success.
// Entries without a data field can never be stored and are dropped.
func (q *RedisQueue) deliver(ctx context.Context, stream string, msg redis.XMessage, handler MessageHandler) {
	data, ok := msg.Values["data"].(string)
	if !ok {
		q.logger.Warn("Dropping stream entry without data", "stream", stream, "id", msg.ID)
		q.client.XAck(ctx, stream, q.config.Group, msg.ID)
		return
	}

	if err := handler([]byte(data)); err != nil {
		q.logger.Warn("Batch handler failed", "stream", stream, "id", msg.ID, "key", msg.Values["key"], "error", err)
		return
	}
	q.client.XAck(ctx, stream, q.config.Group, msg.ID)
}

func (q *RedisQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancel, exists := q.subscriptions[subject]
	if !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}

	cancel()
	delete(q.subscriptions, subject)
	return nil
}

// Close stops readers and closes the Redis connection
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	for subject, cancel := range q.subscriptions {
		cancel()
		delete(q.subscriptions, subject)
	}
	q.mu.Unlock()

	q.wg.Wait()
	return q.client.Close()
}
