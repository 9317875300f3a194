package fetch_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/memocache/cache"
	"github.com/jonwraymond/memocache/fetch"
)

func ExampleAll() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	client := &fetch.Client{Timeout: time.Second}
	urls := []string{srv.URL + "/", srv.URL + "/missing"}

	for _, r := range fetch.All(context.Background(), client, urls, 2) {
		if r.OK() {
			fmt.Println("ok", r.Content.Text())
		} else {
			fmt.Println(fetch.KindOf(r.Err))
		}
	}
	// Output:
	// ok hello
	// client
}

func ExampleCached() {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("page"))
	}))
	defer srv.Close()

	store, _ := cache.New[string, fetch.Content](cache.Config{Capacity: 16, TTL: time.Minute, Locking: cache.LockPerKey})
	cached, _ := fetch.NewCached(&fetch.Client{}, store)

	for range 3 {
		_, _ = cached.Fetch(context.Background(), srv.URL)
	}
	fmt.Println("server requests:", hits.Load())
	// Output:
	// server requests: 1
}
