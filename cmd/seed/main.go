// Package main provides a tool to seed the database with sample talks.
//
// Usage:
//
//	DATA_PATH=~/tlks/data go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/tlksio/tlks-server/internal/domain"
	"github.com/tlksio/tlks-server/internal/id"
	"github.com/tlksio/tlks-server/internal/normalize"
	"github.com/tlksio/tlks-server/internal/slug"
	"github.com/tlksio/tlks-server/internal/store"
)

type sampleTalk struct {
	title       string
	description string
	code        string
	tags        string
}

var sampleTalks = []sampleTalk{
	{
		title:       "Simple Made Easy",
		description: "Rich Hickey on the difference between simplicity and ease, and why it matters for the systems we build.",
		code:        "SxdOUGdseq4",
		tags:        "design, philosophy, simplicity",
	},
	{
		title:       "Concurrency Is Not Parallelism",
		description: "Rob Pike untangles two ideas that are often conflated, with concurrency patterns in Go.",
		code:        "oV9rvDllKEg",
		tags:        "go, concurrency",
	},
	{
		title:       "The Mess We're In",
		description: "Joe Armstrong on complexity, failure, and how we might dig ourselves out.",
		code:        "lKXe3HUG2l4",
		tags:        "philosophy, distributed-systems",
	},
	{
		title:       "Growing a Language",
		description: "Guy Steele demonstrates his point about language design in the talk's own structure.",
		code:        "_ahvzDzKdB0",
		tags:        "languages, design",
	},
	{
		title:       "How to Design a Good API and Why It Matters",
		description: "Joshua Bloch's classic on API design principles.",
		code:        "aAb7hSCtvGw",
		tags:        "design, api",
	},
	{
		title:       "Raft: The Understandable Consensus Algorithm",
		description: "An introduction to Raft and why understandability was a design goal.",
		code:        "vYp4LYbnnW8",
		tags:        "distributed-systems, consensus, raft",
	},
}

var sampleUsers = []string{"alice", "bob", "carol"}

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/tlks/data")
	}
	dbPath := filepath.Join(dataPath, "db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	users := seedUsers(ctx, s)
	seeded := 0

	for _, sample := range sampleTalks {
		author := users[rng.Intn(len(users))]

		talk := &domain.Talk{
			ID:          id.MustGenerate("talk"),
			Slug:        slug.Make(sample.title),
			Title:       sample.title,
			Description: sample.description,
			Code:        sample.code,
			Author:      author.Snapshot(),
			Tags:        normalize.SplitTags(sample.tags),
		}
		talk.InitTimestamps()

		if err := s.CreateTalk(ctx, talk); err != nil {
			fmt.Printf("  skipping %q: %v\n", sample.title, err)
			continue
		}

		// A few random upvotes so the popular feed has an ordering.
		for _, user := range users {
			if rng.Intn(2) == 0 {
				continue
			}
			_, _, err := s.UpdateTalkIf(ctx, talk.ID, func(t *domain.Talk) bool {
				return t.AddVote(user.ID)
			})
			if err != nil {
				fmt.Printf("  vote on %q failed: %v\n", sample.title, err)
			}
		}

		seeded++
		fmt.Printf("  seeded %q as /talk/%s\n", sample.title, talk.Slug)
	}

	fmt.Printf("Done: %d talks seeded.\n", seeded)
}

func seedUsers(ctx context.Context, s *store.Store) []*domain.User {
	users := make([]*domain.User, 0, len(sampleUsers))
	for _, username := range sampleUsers {
		if existing, err := s.GetUserByUsername(ctx, username); err == nil {
			users = append(users, existing)
			continue
		}

		user := &domain.User{
			ID:       id.MustGenerate("user"),
			Username: username,
		}
		user.InitTimestamps()

		if err := s.CreateUser(ctx, user); err != nil {
			log.Fatalf("Failed to create user %q: %v", username, err)
		}
		users = append(users, user)
	}
	return users
}
