package seed

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"codelearn/internal/database"
	"codelearn/internal/featureflags"
	"codelearn/internal/models"
	"codelearn/internal/repository"
	"codelearn/internal/service"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	Users    int
	Groups   int
	Posts    int
	Comments int

	// ProblemSet is a YAML file path; empty uses the embedded default.
	ProblemSet string
	// FastHash hashes passwords with the minimum bcrypt cost.
	FastHash bool
	// RandomSeed makes a run reproducible when non-zero.
	RandomSeed int64
}

// DefaultOptions is a small but lively dataset.
var DefaultOptions = Options{Users: 30, Groups: 5, Posts: 60, Comments: 90}

// Summary counts what a run created.
type Summary struct {
	Users       int
	Groups      int
	Posts       int
	Likes       int
	Comments    int
	Replies     int
	Contests    int
	Submissions int
}

// Seeder writes demo data through the domain services so every score and
// counter stays consistent with what the API would have produced.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	now     func() time.Time

	auth        *service.AuthService
	groups      *service.GroupService
	posts       *service.PostService
	contests    *service.ContestService
	discussions *service.DiscussionService
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	store := repository.NewStore(db)
	auth := service.NewAuthService(store.Users)
	if opts.FastHash {
		auth = auth.WithBcryptCost(bcrypt.MinCost)
	}
	return &Seeder{
		db:          db,
		opts:        opts,
		factory:     NewFactory(opts.RandomSeed),
		now:         time.Now,
		auth:        auth,
		groups:      service.NewGroupService(store.Repos, store),
		posts:       service.NewPostService(store.Repos, store),
		contests:    service.NewContestService(store.Repos, store, featureflags.NewManager(""), nil),
		discussions: service.NewDiscussionService(store.Repos, store),
	}
}

// Seed populates the database. It does not clear existing rows; call ClearAll first.
func (s *Seeder) Seed(ctx context.Context) (*Summary, error) {
	log.Printf("🌱 Seeding %d users, %d groups, %d posts", s.opts.Users, s.opts.Groups, s.opts.Posts)

	problemSet, err := LoadProblemSet(s.opts.ProblemSet)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	users, err := s.seedUsers(ctx, sum)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	if len(users) == 0 {
		return sum, nil
	}
	log.Printf("✓ %d users created", sum.Users)

	rosters, err := s.seedGroups(ctx, users, sum)
	if err != nil {
		return nil, fmt.Errorf("failed to create groups: %w", err)
	}
	log.Printf("✓ %d groups created", sum.Groups)

	if err := s.seedPosts(ctx, users, sum); err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts, %d likes, %d comments, %d replies", sum.Posts, sum.Likes, sum.Comments, sum.Replies)

	if len(rosters) > 0 {
		if err := s.seedContests(ctx, problemSet, rosters, sum); err != nil {
			return nil, fmt.Errorf("failed to create contests: %w", err)
		}
		log.Printf("✓ %d contests, %d submissions", sum.Contests, sum.Submissions)
	}

	log.Println("🎉 Database seeding completed successfully!")
	return sum, nil
}

func (s *Seeder) seedUsers(ctx context.Context, sum *Summary) ([]*models.User, error) {
	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u, err := s.auth.Register(ctx, s.factory.UserInput(i))
		if err != nil {
			return nil, err
		}
		users = append(users, u)
		sum.Users++
	}
	return users, nil
}

// roster is a seeded group with its member ids, creator first.
type roster struct {
	group   *models.Group
	members []uint
}

func (s *Seeder) seedGroups(ctx context.Context, users []*models.User, sum *Summary) ([]*roster, error) {
	rosters := make([]*roster, 0, s.opts.Groups)
	for i := 0; i < s.opts.Groups; i++ {
		creator := users[s.factory.Pick(len(users))]
		g, err := s.groups.CreateGroup(ctx, s.factory.GroupInput(creator.ID))
		if err != nil {
			return nil, err
		}
		rosters = append(rosters, &roster{group: g, members: []uint{creator.ID}})
		sum.Groups++
	}
	if len(rosters) == 0 {
		return rosters, nil
	}

	// Every user lands in at least one group.
	for _, u := range users {
		for n := 1 + s.factory.Pick(2); n > 0; n-- {
			r := rosters[s.factory.Pick(len(rosters))]
			if slices.Contains(r.members, u.ID) {
				continue
			}
			if _, err := s.groups.JoinGroup(ctx, service.JoinGroupInput{
				GroupID:    r.group.ID,
				UserID:     u.ID,
				InviteCode: r.group.InviteCode,
			}); err != nil {
				return nil, err
			}
			r.members = append(r.members, u.ID)
		}
	}
	return rosters, nil
}

func (s *Seeder) seedPosts(ctx context.Context, users []*models.User, sum *Summary) error {
	posts := make([]*models.Post, 0, s.opts.Posts)
	for i := 0; i < s.opts.Posts; i++ {
		author := users[s.factory.Pick(len(users))]
		p, err := s.posts.CreatePost(ctx, s.factory.PostInput(author.ID))
		if err != nil {
			return err
		}
		posts = append(posts, p)
		sum.Posts++

		for _, u := range users {
			if u.ID == author.ID || !s.factory.Chance(4) {
				continue
			}
			if _, err := s.posts.ToggleLike(ctx, p.ID, u.ID); err != nil {
				return err
			}
			sum.Likes++
		}
	}
	if len(posts) == 0 {
		return nil
	}

	for i := 0; i < s.opts.Comments; i++ {
		post := posts[s.factory.Pick(len(posts))]
		commenter := users[s.factory.Pick(len(users))]
		d, err := s.discussions.AddComment(ctx, s.factory.CommentInput(post.ID, commenter.ID))
		if err != nil {
			return err
		}
		sum.Comments++

		if !s.factory.Chance(3) {
			continue
		}
		comment := d.Comments[len(d.Comments)-1]
		if _, err := s.discussions.AddReply(ctx, service.AddReplyInput{
			PostID:    post.ID,
			CommentID: comment.ID,
			UserID:    post.AuthorID,
			Content:   s.factory.ReplyContent(),
		}); err != nil {
			return err
		}
		sum.Replies++
	}
	return nil
}

func (s *Seeder) seedContests(ctx context.Context, set *ProblemSet, rosters []*roster, sum *Summary) error {
	now := s.now()
	for i, tmpl := range set.Contests {
		host := rosters[i%len(rosters)]
		participants := []*roster{host}
		if len(rosters) > 1 && s.factory.Chance(2) {
			participants = append(participants, rosters[(i+1)%len(rosters)])
		}
		groupIDs := make([]uint, 0, len(participants))
		for _, r := range participants {
			groupIDs = append(groupIDs, r.group.ID)
		}

		contest, err := s.contests.CreateContest(ctx, tmpl.Input(host.group.CreatorID, groupIDs, now))
		if err != nil {
			return fmt.Errorf("%s: %w", tmpl.Title, err)
		}
		sum.Contests++

		if !contest.AcceptsSubmissionsAt(s.now()) {
			continue
		}
		for _, r := range participants {
			for _, userID := range r.members {
				if !s.factory.Chance(2) {
					continue
				}
				_, err := s.contests.Submit(ctx, service.SubmitInput{
					ContestID:    contest.ID,
					UserID:       userID,
					ProblemIndex: s.factory.Pick(len(contest.Problems)),
					Code:         snippets["Go"],
					Language:     "Go",
				})
				if err != nil {
					return err
				}
				sum.Submissions++
			}
		}
	}
	return nil
}

// ClearAll removes every row from the domain tables. Submissions refuse
// deletion through the ORM, so this goes through raw SQL.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	tables, err := tableNames(s.db)
	if err != nil {
		return err
	}
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		return db.Exec("TRUNCATE TABLE " + joinQuoted(tables) + " RESTART IDENTITY CASCADE").Error
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for i := len(tables) - 1; i >= 0; i-- {
			if err := tx.Exec("DELETE FROM " + tables[i]).Error; err != nil {
				return fmt.Errorf("clear %s: %w", tables[i], err)
			}
		}
		return nil
	})
}

func tableNames(db *gorm.DB) ([]string, error) {
	out := make([]string, 0, len(database.PersistentModels()))
	for _, m := range database.PersistentModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", m, err)
		}
		out = append(out, stmt.Schema.Table)
	}
	return out, nil
}

func joinQuoted(tables []string) string {
	quoted := make([]string, len(tables))
	for i, t := range tables {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, ", ")
}
