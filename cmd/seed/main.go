// Command seed loads demo data for CodeLearn.
package main

import (
	"context"
	"flag"
	"log"

	"codelearn/internal/config"
	"codelearn/internal/database"
	"codelearn/internal/seed"
)

func main() {
	numUsers := flag.Int("users", seed.DefaultOptions.Users, "Number of users to create")
	numGroups := flag.Int("groups", seed.DefaultOptions.Groups, "Number of study groups to create")
	numPosts := flag.Int("posts", seed.DefaultOptions.Posts, "Number of posts to create")
	numComments := flag.Int("comments", seed.DefaultOptions.Comments, "Number of discussion comments to create")
	problemSet := flag.String("problems", "", "YAML problem set (defaults to SEED_PROBLEM_SET, then the built-in set)")
	randomSeed := flag.Int64("seed", 0, "Random seed for a reproducible dataset")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatalf("Refusing to seed a %s database", cfg.Env)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		Users:      *numUsers,
		Groups:     *numGroups,
		Posts:      *numPosts,
		Comments:   *numComments,
		ProblemSet: *problemSet,
		FastHash:   true,
		RandomSeed: *randomSeed,
	}
	if opts.ProblemSet == "" {
		opts.ProblemSet = cfg.SeedProblemSet
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, opts)
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	sum, err := s.Seed(ctx)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d groups, %d posts, %d contests.", sum.Users, sum.Groups, sum.Posts, sum.Contests)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
