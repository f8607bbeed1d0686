package rtdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store is the contract of the hosted realtime database consumed by the
// rest of the system: whole-subtree reads, unconditional whole-subtree
// overwrites, append-unique-key writes, and push-based snapshot fan-out.
// There is no conditional write: concurrent writers to the same subtree
// are last-write-wins at subtree granularity.
type Store interface {
	ReadSnapshot(ctx context.Context, path string) (json.RawMessage, error)
	WriteSnapshot(ctx context.Context, path string, v any) error
	AppendUnique(ctx context.Context, root string, v any) (string, error)
	DeleteSubtree(ctx context.Context, path string) error
	Subscribe(ctx context.Context, root string) (<-chan json.RawMessage, error)
}

// Client realizes Store on a hosted Redis instance. Value roots (stock)
// are plain keys holding JSON; map roots (orders) are hashes of JSON by
// generated child key. Every mutation republishes the full subtree on the
// root's channel so every subscriber, the writer included, observes the
// post-write snapshot.
type Client struct {
	rdb *redis.Client
}

func New(addr string) *Client {
	r := redis.NewClient(&redis.Options{Addr: addr})
	_ = r.WithTimeout(2 * time.Second)
	return &Client{rdb: r}
}

func (c *Client) Close() error { return c.rdb.Close() }

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// splitPath separates "orders/abc" into root "orders" and child "abc".
func splitPath(path string) (root, child string) {
	root, child, _ = strings.Cut(path, "/")
	return root, child
}

// ReadSnapshot returns the full subtree under path as JSON. An absent
// subtree reads as JSON null, matching the provider's empty-snapshot
// delivery.
func (c *Client) ReadSnapshot(ctx context.Context, path string) (json.RawMessage, error) {
	root, child := splitPath(path)
	if child != "" {
		s, err := c.rdb.HGet(ctx, root, child).Result()
		if err == redis.Nil {
			return json.RawMessage("null"), nil
		}
		if err != nil {
			return nil, fmt.Errorf("rtdb read %s: %w", path, err)
		}
		return json.RawMessage(s), nil
	}
	return c.snapshot(ctx, root)
}

// snapshot serializes the whole subtree under root. The Redis TYPE of the
// key decides the shape: hash roots become a JSON object keyed by child,
// string roots are returned verbatim.
func (c *Client) snapshot(ctx context.Context, root string) (json.RawMessage, error) {
	t, err := c.rdb.Type(ctx, root).Result()
	if err != nil {
		return nil, fmt.Errorf("rtdb snapshot %s: %w", root, err)
	}
	switch t {
	case "hash":
		m, err := c.rdb.HGetAll(ctx, root).Result()
		if err != nil {
			return nil, fmt.Errorf("rtdb snapshot %s: %w", root, err)
		}
		children := make(map[string]json.RawMessage, len(m))
		for k, v := range m {
			children[k] = json.RawMessage(v)
		}
		return json.Marshal(children)
	case "none":
		return json.RawMessage("null"), nil
	default:
		s, err := c.rdb.Get(ctx, root).Result()
		if err == redis.Nil {
			return json.RawMessage("null"), nil
		}
		if err != nil {
			return nil, fmt.Errorf("rtdb snapshot %s: %w", root, err)
		}
		return json.RawMessage(s), nil
	}
}

// WriteSnapshot unconditionally overwrites everything under path. No
// version check, no merge: if two clients race on the same subtree the
// later write wins.
func (c *Client) WriteSnapshot(ctx context.Context, path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("rtdb marshal %s: %w", path, err)
	}
	root, child := splitPath(path)
	if child != "" {
		if err := c.rdb.HSet(ctx, root, child, string(b)).Err(); err != nil {
			return fmt.Errorf("rtdb write %s: %w", path, err)
		}
	} else {
		if err := c.rdb.Set(ctx, root, string(b), 0).Err(); err != nil {
			return fmt.Errorf("rtdb write %s: %w", path, err)
		}
	}
	return c.publish(ctx, root)
}

// AppendUnique stores v under a freshly generated child key of root and
// returns the key. Sibling entries are never touched, so concurrent
// appends from different clients cannot collide.
func (c *Client) AppendUnique(ctx context.Context, root string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("rtdb marshal %s: %w", root, err)
	}
	key := uuid.NewString()
	if err := c.rdb.HSet(ctx, root, key, string(b)).Err(); err != nil {
		return "", fmt.Errorf("rtdb append %s: %w", root, err)
	}
	if err := c.publish(ctx, root); err != nil {
		return "", err
	}
	return key, nil
}

// DeleteSubtree removes everything under path, equivalent to writing a
// null snapshot.
func (c *Client) DeleteSubtree(ctx context.Context, path string) error {
	root, child := splitPath(path)
	var err error
	if child != "" {
		err = c.rdb.HDel(ctx, root, child).Err()
	} else {
		err = c.rdb.Del(ctx, root).Err()
	}
	if err != nil {
		return fmt.Errorf("rtdb delete %s: %w", path, err)
	}
	return c.publish(ctx, root)
}

func (c *Client) publish(ctx context.Context, root string) error {
	snap, err := c.snapshot(ctx, root)
	if err != nil {
		return err
	}
	if err := c.rdb.Publish(ctx, channelFor(root), string(snap)).Err(); err != nil {
		return fmt.Errorf("rtdb publish %s: %w", root, err)
	}
	return nil
}

// Subscribe delivers the current snapshot of root, then every subsequent
// post-write snapshot, until ctx is cancelled. The channel is closed on
// teardown so consumers never run against a dangling subscription.
func (c *Client) Subscribe(ctx context.Context, root string) (<-chan json.RawMessage, error) {
	initial, err := c.snapshot(ctx, root)
	if err != nil {
		return nil, err
	}
	sub := c.rdb.Subscribe(ctx, channelFor(root))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("rtdb subscribe %s: %w", root, err)
	}

	out := make(chan json.RawMessage, 16)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		out <- initial
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- json.RawMessage(m.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
