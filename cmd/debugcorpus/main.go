package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hyperifyio/sugyasearch/internal/corpusclient"
)

func main() {
	base := os.Getenv("CORPUS_BASE_URL")
	if base == "" {
		base = "http://localhost:8000"
	}
	term := "חמץ"
	if len(os.Args) > 1 {
		term = os.Args[1]
	}
	client := corpusclient.New(base, &http.Client{Timeout: 20 * time.Second}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	resp, err := client.Search(ctx, term, 5, nil)
	fmt.Println("search err:", err)
	for i, ref := range resp.TopRefs {
		fmt.Printf("%d. %s\n", i+1, ref)
	}

	if len(resp.TopRefs) > 0 {
		text, err := client.GetText(ctx, resp.TopRefs[0])
		fmt.Println("get-text err:", err)
		fmt.Println(text.Hebrew)
	}
}
