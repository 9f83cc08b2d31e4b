package redis

import (
	"context"
	"fmt"
	"slices"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// fakeClient keeps strings and lists in maps and answers only the commands
// the store issues. Any other command panics on the nil embedded interface.
type fakeClient struct {
	goredis.Cmdable
	strings map[string]string
	lists   map[string][]string
}

func newFakeClient() *fakeClient {
	return &fakeClient{strings: map[string]string{}, lists: map[string][]string{}}
}

func (f *fakeClient) Get(ctx context.Context, key string) *goredis.StringCmd {
	v, ok := f.strings[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeClient) MGet(ctx context.Context, keys ...string) *goredis.SliceCmd {
	vals := make([]any, len(keys))
	for i, k := range keys {
		if v, ok := f.strings[k]; ok {
			vals[i] = v
		}
	}
	return goredis.NewSliceResult(vals, nil)
}

func (f *fakeClient) Set(ctx context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.strings[key] = string(v)
	case string:
		f.strings[key] = v
	default:
		f.strings[key] = fmt.Sprint(v)
	}
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Exists(ctx context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.strings[k]; ok {
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeClient) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	var n int64
	for _, k := range keys {
		if _, ok := f.strings[k]; ok {
			delete(f.strings, k)
			n++
		}
		if _, ok := f.lists[k]; ok {
			delete(f.lists, k)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeClient) LRange(ctx context.Context, key string, start, stop int64) *goredis.StringSliceCmd {
	// The store only asks for whole lists.
	return goredis.NewStringSliceResult(slices.Clone(f.lists[key]), nil)
}

func (f *fakeClient) RPush(ctx context.Context, key string, values ...any) *goredis.IntCmd {
	for _, v := range values {
		f.lists[key] = append(f.lists[key], fmt.Sprint(v))
	}
	return goredis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeClient) LRem(ctx context.Context, key string, count int64, value any) *goredis.IntCmd {
	before := len(f.lists[key])
	f.lists[key] = slices.DeleteFunc(f.lists[key], func(s string) bool { return s == fmt.Sprint(value) })
	return goredis.NewIntResult(int64(before-len(f.lists[key])), nil)
}

// TxPipelined applies queued commands immediately.
func (f *fakeClient) TxPipelined(ctx context.Context, fn func(goredis.Pipeliner) error) ([]goredis.Cmder, error) {
	return nil, fn(fakePipe{f: f})
}

type fakePipe struct {
	goredis.Pipeliner
	f *fakeClient
}

func (p fakePipe) Set(ctx context.Context, key string, value any, exp time.Duration) *goredis.StatusCmd {
	return p.f.Set(ctx, key, value, exp)
}

func (p fakePipe) RPush(ctx context.Context, key string, values ...any) *goredis.IntCmd {
	return p.f.RPush(ctx, key, values...)
}

func (p fakePipe) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	return p.f.Del(ctx, keys...)
}

func (p fakePipe) LRem(ctx context.Context, key string, count int64, value any) *goredis.IntCmd {
	return p.f.LRem(ctx, key, count, value)
}
