package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/SirHooke/debias-batch-processor/internal/mockdebias"
)

func main() {
	addr := defaultString("MOCK_DEBIAS_ADDR", ":8080")
	terms := defaultString("MOCK_DEBIAS_TERMS", "aggressive=contentious adjective=mock vocabulary,primitive=outdated descriptor=mock vocabulary")

	fs := flag.NewFlagSet("mock-debias", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	fs.StringVar(&terms, "terms", terms, "Comma-separated term=issue=source triples to flag")
	failN := fs.Int("fail-count", 0, "Respond with -fail-status for the first N calls")
	failStatus := fs.Int("fail-status", http.StatusServiceUnavailable, "HTTP status for scripted failures")
	_ = fs.Parse(os.Args[1:])

	srv := mockdebias.New()
	for _, triple := range strings.Split(terms, ",") {
		parts := strings.SplitN(strings.TrimSpace(triple), "=", 3)
		if len(parts) != 3 || parts[0] == "" {
			continue
		}
		srv.Flag(parts[0], parts[1], parts[2])
	}
	if *failN > 0 {
		srv.FailFirst(*failN, *failStatus)
	}

	_, _ = fmt.Fprintf(os.Stdout, "mock-debias listening on %s\n", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
