package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/utils"
)

const defaultPrefix = "/climatix/devices/"

// EtcdOptions configures NewEtcdRegistry
type EtcdOptions struct {
	Endpoints    []string
	DialTimeout  time.Duration
	Username     string
	Password     string
	Prefix       string
	CacheTTL     time.Duration // 0 disables the read cache
	AutoRegister bool
}

// EtcdRegistry stores one JSON document per device under Prefix.
// Counter updates use compare-and-swap on the key's mod revision.
type EtcdRegistry struct {
	client       *clientv3.Client
	prefix       string
	cache        *KVCache
	autoRegister bool
	logger       *logging.Logger
}

// NewEtcdRegistry connects to etcd and returns a registry
func NewEtcdRegistry(opts EtcdOptions) (*EtcdRegistry, error) {
	if len(opts.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints not configured")
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
		Username:    opts.Username,
		Password:    opts.Password,
		DialOptions: []grpc.DialOption{grpc.WithBlock()},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", classify(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if _, err := client.Get(ctx, "health", clientv3.WithCountOnly()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("etcd not reachable: %w", classify(err))
	}

	return newEtcdRegistryWithClient(client, opts.Prefix, opts.CacheTTL, opts.AutoRegister), nil
}

func newEtcdRegistryWithClient(client *clientv3.Client, prefix string, cacheTTL time.Duration, autoRegister bool) *EtcdRegistry {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	r := &EtcdRegistry{
		client:       client,
		prefix:       prefix,
		autoRegister: autoRegister,
		logger:       logging.With("component", "registry.etcd"),
	}
	if cacheTTL > 0 {
		r.cache = NewKVCache(cacheTTL)
	}
	return r
}

func (r *EtcdRegistry) key(id string) string {
	return path.Join(r.prefix, id)
}

// classify maps gRPC transport failures to ErrRegistryUnavailable
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrRegistryUnavailable, err)
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded:
			return fmt.Errorf("%w: %s", ErrRegistryUnavailable, s.Message())
		}
	}
	return err
}

func (r *EtcdRegistry) cacheSet(key string, value []byte) {
	if r.cache != nil {
		r.cache.Set(key, value)
	}
}

func (r *EtcdRegistry) cacheDelete(key string) {
	if r.cache != nil {
		r.cache.Delete(key)
	}
}

func (r *EtcdRegistry) Register(ctx context.Context, dev *Device) error {
	if err := ValidateDeviceID(dev.ID); err != nil {
		return err
	}
	if dev.CreatedAt.IsZero() {
		dev.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(dev)
	if err != nil {
		return fmt.Errorf("failed to marshal device: %w", err)
	}

	key := r.key(dev.ID)
	resp, err := r.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(key), "=", 0)).
		Then(clientv3.OpPut(key, string(data))).
		Commit()
	if err != nil {
		return fmt.Errorf("failed to register device: %w", classify(err))
	}
	if !resp.Succeeded {
		return fmt.Errorf("%w: %s", ErrDeviceExists, dev.ID)
	}

	r.cacheSet(key, data)
	return nil
}

func (r *EtcdRegistry) Get(ctx context.Context, id string) (*Device, error) {
	key := r.key(id)
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			var dev Device
			if err := json.Unmarshal(cached, &dev); err == nil {
				return &dev, nil
			}
		}
	}

	dev, _, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// load reads a device and its mod revision, bypassing the cache
func (r *EtcdRegistry) load(ctx context.Context, id string) (*Device, int64, error) {
	key := r.key(id)
	resp, err := r.client.Get(ctx, key)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get device: %w", classify(err))
	}
	if len(resp.Kvs) == 0 {
		r.cacheDelete(key)
		return nil, 0, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}

	var dev Device
	if err := json.Unmarshal(resp.Kvs[0].Value, &dev); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal device %s: %w", id, err)
	}
	r.cacheSet(key, resp.Kvs[0].Value)
	return &dev, resp.Kvs[0].ModRevision, nil
}

func (r *EtcdRegistry) List(ctx context.Context) ([]*Device, error) {
	resp, err := r.client.Get(ctx, r.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", classify(err))
	}

	devices := make([]*Device, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var dev Device
		if err := json.Unmarshal(kv.Value, &dev); err != nil {
			r.logger.Warn("Skipping undecodable device entry", "key", string(kv.Key), "error", err)
			continue
		}
		devices = append(devices, &dev)
	}

	sortDevices(devices)
	return devices, nil
}

func (r *EtcdRegistry) Update(ctx context.Context, dev *Device) error {
	return r.modify(ctx, dev.ID, false, func(cur *Device) {
		cur.Name = dev.Name
		cur.Description = dev.Description
		cur.Labels = dev.clone().Labels
	})
}

func (r *EtcdRegistry) Delete(ctx context.Context, id string) error {
	key := r.key(id)
	resp, err := r.client.Delete(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", classify(err))
	}
	r.cacheDelete(key)
	if resp.Deleted == 0 {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return nil
}

func (r *EtcdRegistry) Track(ctx context.Context, id string, count int, lastSeen time.Time) error {
	if err := ValidateDeviceID(id); err != nil {
		return err
	}
	return r.modify(ctx, id, r.autoRegister, func(cur *Device) {
		cur.applyTrack(count, lastSeen)
	})
}

func (r *EtcdRegistry) UpdateSettings(ctx context.Context, id string, settings Settings) error {
	if err := ValidateDeviceID(id); err != nil {
		return err
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	return r.modify(ctx, id, r.autoRegister, func(cur *Device) {
		st := settings
		cur.Settings = &st
	})
}

// Ping issues a count-only range read against the device prefix
func (r *EtcdRegistry) Ping(ctx context.Context) error {
	if _, err := r.client.Get(ctx, r.prefix, clientv3.WithPrefix(), clientv3.WithCountOnly()); err != nil {
		return fmt.Errorf("etcd ping failed: %w", classify(err))
	}
	return nil
}

// modify applies fn under a mod-revision compare, retrying when another
// writer got there first. create allows fn to start from a fresh device.
func (r *EtcdRegistry) modify(ctx context.Context, id string, create bool, fn func(*Device)) error {
	key := r.key(id)

	for attempt := 0; attempt < utils.DefaultMaxRetries; attempt++ {
		dev, rev, err := r.load(ctx, id)
		switch {
		case errors.Is(err, ErrDeviceNotFound) && create:
			dev = &Device{ID: id, CreatedAt: time.Now().UTC()}
			rev = 0
		case err != nil:
			return err
		}

		fn(dev)
		data, err := json.Marshal(dev)
		if err != nil {
			return fmt.Errorf("failed to marshal device: %w", err)
		}

		cmp := clientv3.Compare(clientv3.ModRevision(key), "=", rev)
		if rev == 0 {
			cmp = clientv3.Compare(clientv3.CreateRevision(key), "=", 0)
		}
		resp, err := r.client.Txn(ctx).If(cmp).Then(clientv3.OpPut(key, string(data))).Commit()
		if err != nil {
			return fmt.Errorf("failed to update device: %w", classify(err))
		}
		if resp.Succeeded {
			r.cacheSet(key, data)
			return nil
		}

		r.logger.Debug("Device update conflict, retrying", "device_id", id, "attempt", attempt+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(utils.DefaultRetryBackoff):
		}
	}

	return fmt.Errorf("device %s: too many concurrent updates", id)
}

func (r *EtcdRegistry) Close() error {
	if r.cache != nil {
		r.cache.Stop()
	}
	return r.client.Close()
}
