package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/websearch/internal/config"
	"github.com/hyperifyio/websearch/internal/search"
)

// debugsearch sends one query to every backend directly, bypassing selection
// and fallback, and prints what each one returned.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	_ = config.LoadEnvFiles(".env")

	q := "What is love?"
	if len(os.Args) > 1 {
		q = strings.Join(os.Args[1:], " ")
	}
	cfg := config.Resolve(context.Background(), config.Overrides{})
	for _, b := range cfg.CreateBackends() {
		if !b.Available() {
			fmt.Printf("== %s: not configured\n", b.Name())
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		start := time.Now()
		res, err := b.Search(ctx, search.Query{Keywords: q, MaxResults: 5, UseProxy: cfg.Proxy.HasCredentials()})
		cancel()
		fmt.Printf("== %s (%s)\n", b.Name(), time.Since(start).Round(time.Millisecond))
		if err != nil {
			fmt.Println("err:", err)
			continue
		}
		for i, r := range res {
			fmt.Printf("%d. %s - %s\n", i+1, r.Title, r.Href)
		}
	}
}
