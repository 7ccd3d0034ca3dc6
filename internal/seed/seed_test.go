package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codelearn/internal/models"
	"codelearn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProblemSet_Default(t *testing.T) {
	set, err := LoadProblemSet("")
	require.NoError(t, err)
	require.Len(t, set.Contests, 3)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	warmup := set.Contests[0]
	assert.Equal(t, now.Add(-15*time.Minute), warmup.StartTime(now))

	in := warmup.Input(7, []uint{1, 2}, now)
	assert.Equal(t, uint(7), in.CreatorID)
	assert.Equal(t, 120, in.Duration)
	require.Len(t, in.Problems, 3)
	assert.Equal(t, models.DifficultyEasy, in.Problems[0].Difficulty)
	assert.Equal(t, []models.TestCase{{Input: "[2,7,11,15], 9", Output: "[0,1]"}}, in.Problems[0].TestCases)

	// Points left out fall back to the contest default.
	assert.Zero(t, set.Contests[2].Problems[0].Points)
}

func TestParseProblemSet_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", "contests: []"},
		{"not yaml", "contests: [unclosed"},
		{"missing title", "contests:\n  - duration: 60\n    problems:\n      - title: A\n"},
		{"zero duration", "contests:\n  - title: C\n    problems:\n      - title: A\n"},
		{"bad offset", "contests:\n  - title: C\n    duration: 60\n    starts_in: soon\n    problems:\n      - title: A\n"},
		{"no problems", "contests:\n  - title: C\n    duration: 60\n"},
		{"bad difficulty", "contests:\n  - title: C\n    duration: 60\n    problems:\n      - title: A\n        difficulty: easy\n"},
		{"negative points", "contests:\n  - title: C\n    duration: 60\n    problems:\n      - title: A\n        points: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProblemSet([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadProblemSet_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.yml")
	doc := "contests:\n  - title: Solo\n    duration: 30\n    starts_in: 1h\n    problems:\n      - title: Fizz Buzz\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	set, err := LoadProblemSet(path)
	require.NoError(t, err)
	require.Len(t, set.Contests, 1)

	now := time.Now()
	in := set.Contests[0].Input(1, []uint{1}, now)
	assert.Equal(t, "Solo", in.Description, "description defaults to the title")
	assert.Equal(t, "Fizz Buzz", in.Problems[0].Description)
	assert.Equal(t, now.Add(time.Hour), in.StartTime)

	_, err = LoadProblemSet(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestFactory_Reproducible(t *testing.T) {
	a, b := NewFactory(42), NewFactory(42)
	assert.Equal(t, a.UserInput(0), b.UserInput(0))
	assert.Equal(t, a.PostInput(1), b.PostInput(1))
}

func TestFactory_InputsAreValid(t *testing.T) {
	f := NewFactory(7)
	for i := 0; i < 25; i++ {
		u := f.UserInput(i)
		assert.Contains(t, colleges, u.College)
		assert.Contains(t, u.Email, "@codelearn.dev")
		assert.GreaterOrEqual(t, u.Year, 1)

		p := f.PostInput(1)
		assert.True(t, models.IsSupportedLanguage(p.Language), p.Language)
		assert.True(t, p.Difficulty.Valid())
		assert.NotEmpty(t, p.Code)
		assert.NotEmpty(t, p.Tags)

		c := f.CommentInput(1, 2)
		if c.Code != "" {
			assert.True(t, models.IsSupportedLanguage(c.Language))
		}
	}
}

func TestSeeder_Seed(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewSeeder(db, Options{Users: 8, Groups: 3, Posts: 6, Comments: 8, FastHash: true, RandomSeed: 99})

	sum, err := s.Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, sum.Users)
	assert.Equal(t, 3, sum.Groups)
	assert.Equal(t, 6, sum.Posts)
	assert.Equal(t, 8, sum.Comments)
	assert.Equal(t, 3, sum.Contests)

	var users, posts, contests int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Contest{}).Count(&contests).Error)
	assert.EqualValues(t, 8, users)
	assert.EqualValues(t, 6, posts)
	assert.EqualValues(t, 3, contests)

	var members []models.GroupMember
	require.NoError(t, db.Find(&members).Error)
	joined := map[uint]bool{}
	for _, m := range members {
		joined[m.UserID] = true
	}
	assert.Len(t, joined, 8, "every seeded user belongs to a group")

	// Scores are exactly the sum of the awards the run handed out.
	var submitted, total int
	require.NoError(t, db.Model(&models.Submission{}).Select("COALESCE(SUM(score), 0)").Scan(&submitted).Error)
	require.NoError(t, db.Model(&models.User{}).Select("COALESCE(SUM(coding_score), 0)").Scan(&total).Error)
	want := 10*sum.Posts + 2*sum.Likes + 5*sum.Comments + 3*sum.Replies + submitted
	assert.Equal(t, want, total)

	var groupTotal int
	require.NoError(t, db.Model(&models.Group{}).Select("COALESCE(SUM(group_score), 0)").Scan(&groupTotal).Error)
	assert.Equal(t, submitted, groupTotal)
}

func TestSeeder_ClearAll(t *testing.T) {
	db := testutil.NewTestDB(t)
	s := NewSeeder(db, Options{Users: 3, Groups: 1, Posts: 2, Comments: 2, FastHash: true, RandomSeed: 1})
	_, err := s.Seed(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(context.Background()))

	for _, m := range []any{&models.User{}, &models.Group{}, &models.Contest{}, &models.Submission{}, &models.Post{}, &models.Comment{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T", m)
	}
}

func TestSeeder_NoUsers(t *testing.T) {
	db := testutil.NewTestDB(t)
	sum, err := NewSeeder(db, Options{Groups: 2, Posts: 2}).Seed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Summary{}, sum)
}
