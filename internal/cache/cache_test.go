package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestGetSet_LazyExpiry(t *testing.T) {
	clk := newClock()
	c := New[string]("test", WithClock(clk.Now))

	c.Set("k", "v", time.Minute)
	if v, ok := c.Get("k"); !ok || v != "v" {
		t.Fatalf("Get = %q,%v", v, ok)
	}

	clk.Advance(time.Minute)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry should live through exactly its TTL")
	}

	clk.Advance(time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry should be expired")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry should be removed on read, len=%d", c.Len())
	}
}

func TestSet_DefaultTTL(t *testing.T) {
	clk := newClock()
	c := New[int]("test", WithClock(clk.Now))
	c.Set("a", 1, 0)

	clk.Advance(DefaultTTL - time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("should be alive before default TTL")
	}
	clk.Advance(2 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("should expire after default TTL")
	}

	c2 := New[int]("test", WithClock(clk.Now), WithDefaultTTL(time.Second))
	c2.Set("b", 2, -1)
	clk.Advance(1500 * time.Millisecond)
	if _, ok := c2.Get("b"); ok {
		t.Fatalf("custom default TTL not applied")
	}
}

func TestSet_OverwriteResetsTTL(t *testing.T) {
	clk := newClock()
	c := New[string]("test", WithClock(clk.Now))
	c.Set("k", "old", time.Minute)
	clk.Advance(50 * time.Second)
	c.Set("k", "new", time.Minute)
	clk.Advance(30 * time.Second)
	if v, ok := c.Get("k"); !ok || v != "new" {
		t.Fatalf("Get = %q,%v", v, ok)
	}
}

func TestDeleteClearCleanup(t *testing.T) {
	clk := newClock()
	c := New[int]("test", WithClock(clk.Now))
	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)
	c.Set("gone", 3, time.Hour)

	c.Delete("gone")
	clk.Advance(2 * time.Second)
	if n := c.Cleanup(); n != 1 {
		t.Fatalf("Cleanup removed %d, want 1", n)
	}
	if keys := c.Keys(); len(keys) != 1 || keys[0] != "long" {
		t.Fatalf("keys=%v", keys)
	}
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Clear left %d entries", c.Len())
	}
}

func TestInvalidationHelpers(t *testing.T) {
	c := New[int]("test")
	c.Set(DishesKey("", "", 0), 1, 0)
	c.Set(DishesKey("dessert", "recent", 20), 1, 0)
	c.Set(SearchKey("Sushi", 100), 1, 0)
	c.Set(UserLikedKey("u-1"), 1, 0)
	c.Set(UserLikedKey("u-2"), 1, 0)
	c.Set("unrelated", 1, 0)

	if n := c.DeletePrefix(PrefixDishes, PrefixSearch); n != 3 {
		t.Fatalf("DeletePrefix removed %d, want 3", n)
	}
	if n := c.DeleteContaining("u-1"); n != 1 {
		t.Fatalf("DeleteContaining removed %d, want 1", n)
	}
	if n := c.DeleteContaining(""); n != 0 {
		t.Fatalf("empty substring must not clear")
	}
	keys := c.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "unrelated" || keys[1] != "user-liked-dishes:u-2" {
		t.Fatalf("keys=%v", keys)
	}
	if st := c.Stats(); st.Name != "test" || st.Size != 2 {
		t.Fatalf("stats=%+v", st)
	}
}

func TestKeys_Format(t *testing.T) {
	cases := map[string]string{
		DishesKey("", "", 0):               "dishes:all:popular:50",
		DishesKey("main_dish", "recent", 20): "dishes:main_dish:recent:20",
		SearchKey("PhO", 100):              "search:pho:100",
		UserLikedKey("abc"):                "user-liked-dishes:abc",
		CountriesKey(""):                   "dishes:countries:all",
		PoolKey("Japan", "main_food"):      "dishes:pool:Japan:main_food",
		AuthorDishesKey("a1"):              "dishes:author:a1",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("key=%q want %q", got, want)
		}
	}
}

func TestGetOrLoad(t *testing.T) {
	c := New[any]("test")
	calls := 0
	fetch := func(context.Context) ([]string, error) {
		calls++
		return []string{"Japan"}, nil
	}
	for i := 0; i < 3; i++ {
		v, err := GetOrLoad(context.Background(), c, "countries", 0, fetch)
		if err != nil || len(v) != 1 || v[0] != "Japan" {
			t.Fatalf("GetOrLoad = %v,%v", v, err)
		}
	}
	if calls != 1 {
		t.Fatalf("fetch called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	_, err := GetOrLoad(context.Background(), c, "fail", 0, func(context.Context) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if _, ok := c.Get("fail"); ok {
		t.Fatalf("failed fetch must not be cached")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	c := New[int]("test")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 5*time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
	c.Run(context.Background(), 0) // returns immediately
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int]("test")
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Set(DishesKey("", "", j%5+1), j, 0)
				c.Get(DishesKey("", "", j%5+1))
				if j%50 == 0 {
					c.DeletePrefix(PrefixDishes)
					c.Cleanup()
				}
			}
		}(i)
	}
	wg.Wait()
}
