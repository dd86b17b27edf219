// Command opcache-demo exercises a TTL-mode cache end to end: concurrent
// fills via poq.RunAll, a lazy-expiry read, and a graceful shutdown.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/opcache/opcache"
	"github.com/opcache/opcache/poq"
)

func main() {
	cache := opcache.New(
		opcache.WithName("demo"),
		opcache.WithTTLCache(true),
		opcache.WithAgeLimit(5*time.Second),
		opcache.WithCostLimit(100),
	)
	defer cache.Close()

	fns := make([]func() error, 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		fns = append(fns, func() error {
			key := fmt.Sprintf("key-%d", i)
			return cache.Set(key, i, 1, nil)
		})
	}
	if err := poq.RunAll(context.Background(), cache.Queue(), poq.PriorityDefault, fns); err != nil {
		fmt.Println("fill failed:", err)
		return
	}

	cache.Queue().WaitUntilAllFinished()

	if _, ok := cache.Get("key-0"); ok {
		fmt.Println("key-0 present immediately after fill")
	}

	time.Sleep(6 * time.Second)

	if _, ok := cache.Get("key-0"); !ok {
		fmt.Println("key-0 expired (age limit elapsed)")
	}

	fmt.Printf("stats: %+v\n", cache.Stats())
}
