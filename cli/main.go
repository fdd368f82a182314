package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"revokeradar/internal/types"

	"github.com/zeromicro/go-zero/core/jsonx"
	"github.com/zeromicro/go-zero/rest/httpc"
)

func main() {
	addr := flag.String("addr", "http://localhost:8888", "status server of a running revokeradar")
	raw := flag.Bool("json", false, "print the raw status document")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	url := strings.TrimRight(*addr, "/") + "/api/status"
	resp, err := httpc.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		fail("request %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fail("%s returned %s", url, resp.Status)
	}

	var status types.StatusResp
	if err := jsonx.UnmarshalFromReader(resp.Body, &status); err != nil {
		fail("cannot decode status: %v", err)
	}

	if *raw {
		out, err := jsonx.MarshalToString(status)
		if err != nil {
			fail("cannot encode status: %v", err)
		}
		fmt.Println(out)
		return
	}
	printStatus(&status)
}

func printStatus(s *types.StatusResp) {
	fmt.Printf("state:     %s\n", s.State)
	fmt.Printf("dry run:   %t\n", s.DryRun)
	fmt.Printf("chain id:  %s\n", s.ChainId)
	fmt.Printf("wallet:    %s\n", s.Wallet)
	fmt.Printf("spenders:  %s\n", strings.Join(s.Spenders, ", "))
	fmt.Printf("interval:  %ds\n", s.PollInterval)

	c := s.LastCycle
	if c == nil {
		fmt.Println("\nno cycle finished yet")
		return
	}

	fmt.Printf("\n--- cycle %d (%s, %s) ---\n", c.Cycle, c.StartedAt.Format(time.RFC3339), c.FinishedAt.Sub(c.StartedAt))
	if c.Error != "" {
		fmt.Printf("error: %s\n", c.Error)
	}
	fmt.Printf("tokens %d, pairs %d, start nonce %d\n", c.Tokens, c.PairsScanned, c.StartNonce)
	for _, f := range c.Findings {
		fmt.Println(f.String())
	}
	for _, h := range c.TxHashes {
		fmt.Printf("sent: %s\n", h)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
