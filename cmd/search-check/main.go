package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/reddit"
	"github.com/brandpulse/mentions-bot/internal/sentiment"
)

// search-check runs a one-off anonymous search for a keyword and prints the
// classified results, for verifying API connectivity and tuning keywords.
func main() {
	keyword := flag.String("keyword", "", "keyword to search for")
	limit := flag.Int("limit", 10, "maximum posts to fetch")
	flag.Parse()

	if *keyword == "" {
		log.Fatal("usage: search-check -keyword <term> [-limit n]")
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := reddit.NewClient(cfg.RedditUserAgent, cfg.RetryAttempts, cfg.RetryDelay)

	fmt.Printf("Searching Reddit for %q (anonymous mode)...\n", *keyword)
	posts, err := client.SearchPosts(ctx, *keyword, "", *limit)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	fmt.Printf("Found %d posts\n\n", len(posts))
	for _, post := range posts {
		result := sentiment.Classify(post.Title+" "+post.Selftext, *keyword)
		fmt.Printf("[%s] r/%s by %s (score %d, %d comments)\n",
			result.Sentiment, post.Subreddit, post.Author, post.Score, post.NumComments)
		fmt.Printf("  %s\n", post.Title)
		fmt.Printf("  tags: %v\n", result.Tags)
		fmt.Printf("  %s\n\n", post.URL())
	}
}
