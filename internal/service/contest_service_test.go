package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"codelearn/internal/featureflags"
	"codelearn/internal/models"
	"codelearn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contestStart = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func validContestInput(creatorID uint, groupIDs ...uint) CreateContestInput {
	return CreateContestInput{
		CreatorID:   creatorID,
		Title:       "Weekly Sprint",
		Description: "Solve fast",
		StartTime:   contestStart,
		Duration:    60,
		Problems: []ProblemInput{
			{Title: "Two Sum", Description: "find a pair", Difficulty: models.DifficultyEasy, Points: 100},
			{Title: "LIS", Description: "longest increasing subsequence", Difficulty: models.DifficultyHard},
		},
		GroupIDs: groupIDs,
	}
}

func TestContestService_CreateContest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada)

	contest, err := env.contests().CreateContest(ctx, validContestInput(ada.ID, g.ID, g.ID))
	require.NoError(t, err)

	assert.Equal(t, contest.StartTime.Add(60*time.Minute), contest.EndTime)
	assert.Equal(t, models.ContestUpcoming, contest.Status)
	assert.Equal(t, "weekly-sprint", contest.Slug)
	require.Len(t, contest.Problems, 2)
	assert.Equal(t, 0, contest.Problems[0].Position)
	assert.Equal(t, models.DefaultProblemPoints, contest.Problems[1].EffectivePoints())
	require.Len(t, contest.ParticipatingGroups, 1, "duplicate group ids collapse")
}

func TestContestService_CreateContest_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada)
	svc := env.contests()

	tests := []struct {
		name   string
		mutate func(*CreateContestInput)
		code   string
	}{
		{"missing title", func(in *CreateContestInput) { in.Title = " " }, models.CodeValidation},
		{"zero duration", func(in *CreateContestInput) { in.Duration = 0 }, models.CodeValidation},
		{"no problems", func(in *CreateContestInput) { in.Problems = nil }, models.CodeValidation},
		{"bad difficulty", func(in *CreateContestInput) { in.Problems[0].Difficulty = "easy" }, models.CodeValidation},
		{"negative points", func(in *CreateContestInput) { in.Problems[0].Points = -1 }, models.CodeValidation},
		{"no groups", func(in *CreateContestInput) { in.GroupIDs = nil }, models.CodeValidation},
		{"unknown group", func(in *CreateContestInput) { in.GroupIDs = []uint{g.ID, 999} }, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validContestInput(ada.ID, g.ID)
			tt.mutate(&in)
			_, err := svc.CreateContest(ctx, in)
			assertAppError(t, err, tt.code)
		})
	}
}

func TestContestService_EndTimeInvariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada)

	for _, minutes := range []int{1, 45, 90, 24 * 60} {
		in := validContestInput(ada.ID, g.ID)
		in.Duration = minutes
		c, err := env.contests().CreateContest(ctx, in)
		require.NoError(t, err)
		assert.True(t, c.EndTime.Equal(c.StartTime.Add(time.Duration(minutes)*time.Minute)))
	}
}

// Start T, duration 60, problem 0 worth 100: accepted at T+10m, rejected at T+70m.
func TestContestService_Submit_Scenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada)
	svc := env.contests()

	contest, err := svc.CreateContest(ctx, validContestInput(ada.ID, g.ID))
	require.NoError(t, err)

	env.clock.t = contestStart.Add(10 * time.Minute)
	sub, err := svc.Submit(ctx, SubmitInput{ContestID: contest.ID, UserID: ada.ID, ProblemIndex: 0, Code: "x", Language: "Go"})
	require.NoError(t, err)
	assert.Equal(t, 100, sub.Score)
	assert.Equal(t, g.ID, sub.GroupID)

	standings, err := svc.Standings(ctx, contest.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, standings[0].Score)
	assert.Equal(t, 100, env.score(t, ada.ID))
	group, err := env.store.Groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, group.GroupScore)

	env.clock.t = contestStart.Add(70 * time.Minute)
	_, err = svc.Submit(ctx, SubmitInput{ContestID: contest.ID, UserID: ada.ID, ProblemIndex: 0, Code: "x", Language: "Go"})
	assertAppError(t, err, models.CodeBusinessRule)

	after, err := svc.GetContest(ctx, contest.ID)
	require.NoError(t, err)
	assert.Len(t, after.Submissions, 1)
	assert.Equal(t, models.ContestCompleted, after.Status)
	assert.Equal(t, 100, after.ParticipatingGroups[0].Score)
	assert.Equal(t, 100, env.score(t, ada.ID))
}

func TestContestService_Submit_Accumulates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada)
	svc := env.contests()

	in := validContestInput(ada.ID, g.ID)
	in.Problems[0].Points = 30
	contest, err := svc.CreateContest(ctx, in)
	require.NoError(t, err)

	env.clock.t = contestStart.Add(time.Minute)
	const n = 4
	for i := 0; i < n; i++ {
		_, err := svc.Submit(ctx, SubmitInput{ContestID: contest.ID, UserID: ada.ID, ProblemIndex: 0, Code: "x", Language: "Go"})
		require.NoError(t, err)
	}

	standings, err := svc.Standings(ctx, contest.ID)
	require.NoError(t, err)
	assert.Equal(t, n*30, standings[0].Score)
	assert.Equal(t, n*30, env.score(t, ada.ID))

	reloaded, err := env.store.Contests.GetByID(ctx, contest.ID, false)
	require.NoError(t, err)
	assert.Equal(t, uint(1+n), reloaded.Version)
}

func TestContestService_Submit_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	outsider := testutil.CreateUser(t, env.db, "eve", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada)
	svc := env.contests()

	contest, err := svc.CreateContest(ctx, validContestInput(ada.ID, g.ID))
	require.NoError(t, err)
	inWindow := contestStart.Add(5 * time.Minute)

	tests := []struct {
		name string
		at   time.Time
		in   SubmitInput
		code string
	}{
		{"missing contest", inWindow, SubmitInput{ContestID: 999, UserID: ada.ID, Code: "x", Language: "Go"}, models.CodeNotFound},
		{"index past end", inWindow, SubmitInput{ContestID: contest.ID, UserID: ada.ID, ProblemIndex: 2, Code: "x", Language: "Go"}, models.CodeValidation},
		{"negative index", inWindow, SubmitInput{ContestID: contest.ID, UserID: ada.ID, ProblemIndex: -1, Code: "x", Language: "Go"}, models.CodeValidation},
		{"empty code", inWindow, SubmitInput{ContestID: contest.ID, UserID: ada.ID, Code: " ", Language: "Go"}, models.CodeValidation},
		{"before start", contestStart.Add(-time.Second), SubmitInput{ContestID: contest.ID, UserID: ada.ID, Code: "x", Language: "Go"}, models.CodeBusinessRule},
		{"after end", contestStart.Add(61 * time.Minute), SubmitInput{ContestID: contest.ID, UserID: ada.ID, Code: "x", Language: "Go"}, models.CodeBusinessRule},
		{"one nanosecond after end", contestStart.Add(60*time.Minute + time.Nanosecond), SubmitInput{ContestID: contest.ID, UserID: ada.ID, Code: "x", Language: "Go"}, models.CodeBusinessRule},
		{"not in a participating group", inWindow, SubmitInput{ContestID: contest.ID, UserID: outsider.ID, Code: "x", Language: "Go"}, models.CodeBusinessRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.clock.t = tt.at
			_, err := svc.Submit(ctx, tt.in)
			assertAppError(t, err, tt.code)
		})
	}
	assert.Zero(t, env.score(t, ada.ID))
}

func TestContestService_Submit_WindowBoundaries(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada)
	svc := env.contests()

	contest, err := svc.CreateContest(ctx, validContestInput(ada.ID, g.ID))
	require.NoError(t, err)
	in := SubmitInput{ContestID: contest.ID, UserID: ada.ID, Code: "x", Language: "Go"}

	env.clock.t = contestStart
	_, err = svc.Submit(ctx, in)
	require.NoError(t, err, "the start instant is inside the window")

	env.clock.t = contest.EndTime
	_, err = svc.Submit(ctx, in)
	require.NoError(t, err, "the end instant is inside the window")

	env.clock.t = contest.EndTime.Add(time.Nanosecond)
	_, err = svc.Submit(ctx, in)
	assertAppError(t, err, models.CodeBusinessRule)

	env.clock.t = contestStart.Add(-time.Nanosecond)
	_, err = svc.Submit(ctx, in)
	assertAppError(t, err, models.CodeBusinessRule)

	assert.Equal(t, 200, env.score(t, ada.ID))
}

func TestContestService_Submit_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const n = 8

	creator := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	members := make([]*models.User, n)
	for i := range members {
		members[i] = testutil.CreateUser(t, env.db, fmt.Sprintf("coder%d", i), "MIT", "CSE", 0)
	}
	g := testutil.CreateGroup(t, env.db, "algo", creator, members...)
	svc := env.contests()

	contest, err := svc.CreateContest(ctx, validContestInput(creator.ID, g.ID))
	require.NoError(t, err)
	env.clock.t = contestStart.Add(time.Minute)

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i, u := range members {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.Submit(ctx, SubmitInput{ContestID: contest.ID, UserID: u.ID, Code: "x", Language: "Go"})
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	standings, err := svc.Standings(ctx, contest.ID)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, n*100, standings[0].Score)

	group, err := env.store.Groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, n*100, group.GroupScore)
	for _, u := range members {
		assert.Equal(t, 100, env.score(t, u.ID))
	}

	reloaded, err := env.store.Contests.GetByID(ctx, contest.ID, true)
	require.NoError(t, err)
	assert.Len(t, reloaded.Submissions, n)
	assert.Equal(t, uint(1+n), reloaded.Version)
}

func TestContestService_ListByOrganizer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	bob := testutil.CreateUser(t, env.db, "bob", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada, bob)
	svc := env.contests()

	mine, err := svc.CreateContest(ctx, validContestInput(ada.ID, g.ID))
	require.NoError(t, err)
	_, err = svc.CreateContest(ctx, validContestInput(bob.ID, g.ID))
	require.NoError(t, err)

	env.clock.t = contestStart.Add(time.Minute)
	list, err := svc.ListByOrganizer(ctx, ada.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
	assert.Equal(t, models.ContestOngoing, list[0].Status, "status is derived from the clock")

	_, err = svc.ListByOrganizer(ctx, 999, 10, 0)
	assertAppError(t, err, models.CodeNotFound)
}

func TestContestService_Submit_IgnoresStoredStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada)
	svc := env.contests()

	contest, err := svc.CreateContest(ctx, validContestInput(ada.ID, g.ID))
	require.NoError(t, err)
	require.NoError(t, env.store.Contests.UpdateStatus(ctx, contest.ID, models.ContestCompleted))

	env.clock.t = contestStart.Add(time.Minute)
	_, err = svc.Submit(ctx, SubmitInput{ContestID: contest.ID, UserID: ada.ID, Code: "x", Language: "Go"})
	require.NoError(t, err)

	require.NoError(t, env.store.Contests.UpdateStatus(ctx, contest.ID, models.ContestOngoing))
	env.clock.t = contestStart.Add(2 * time.Hour)
	_, err = svc.Submit(ctx, SubmitInput{ContestID: contest.ID, UserID: ada.ID, Code: "x", Language: "Go"})
	assertAppError(t, err, models.CodeBusinessRule)
}

func TestContestService_Submit_GroupCrediting(t *testing.T) {
	for _, creditAll := range []bool{false, true} {
		name := "first match"
		if creditAll {
			name = "credit all groups"
		}
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t)
			if creditAll {
				env.flags = featureflags.NewManager(featureflags.CreditAllGroups + "=on")
			}
			ctx := context.Background()
			ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
			g1 := testutil.CreateGroup(t, env.db, "one", ada)
			g2 := testutil.CreateGroup(t, env.db, "two", ada)
			svc := env.contests()

			contest, err := svc.CreateContest(ctx, validContestInput(ada.ID, g2.ID, g1.ID))
			require.NoError(t, err)

			env.clock.t = contestStart.Add(time.Minute)
			sub, err := svc.Submit(ctx, SubmitInput{ContestID: contest.ID, UserID: ada.ID, Code: "x", Language: "Go"})
			require.NoError(t, err)
			assert.Equal(t, g2.ID, sub.GroupID, "registration order decides the first match")

			scores := map[uint]int{}
			standings, err := svc.Standings(ctx, contest.ID)
			require.NoError(t, err)
			for _, cg := range standings {
				scores[cg.GroupID] = cg.Score
			}
			assert.Equal(t, 100, scores[g2.ID])
			if creditAll {
				assert.Equal(t, 100, scores[g1.ID])
			} else {
				assert.Equal(t, 0, scores[g1.ID])
			}
			assert.Equal(t, 100, env.score(t, ada.ID), "the user is credited once")
		})
	}
}

func TestContestService_StatusIsDerived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada)
	svc := env.contests()

	contest, err := svc.CreateContest(ctx, validContestInput(ada.ID, g.ID))
	require.NoError(t, err)

	env.clock.t = contestStart.Add(30 * time.Minute)
	list, err := svc.ListContests(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, models.ContestOngoing, list[0].Status)

	refreshed, err := svc.RefreshStatus(ctx, contest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContestOngoing, refreshed.Status)
	again, err := svc.RefreshStatus(ctx, contest.ID)
	require.NoError(t, err)
	assert.Equal(t, refreshed.Status, again.Status)

	stored, err := env.store.Contests.GetByID(ctx, contest.ID, false)
	require.NoError(t, err)
	assert.Equal(t, models.ContestOngoing, stored.Status)
}

func TestContestService_DeleteContest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ada := testutil.CreateUser(t, env.db, "ada", "MIT", "CSE", 0)
	bob := testutil.CreateUser(t, env.db, "bob", "MIT", "CSE", 0)
	g := testutil.CreateGroup(t, env.db, "algo", ada, bob)
	svc := env.contests()

	contest, err := svc.CreateContest(ctx, validContestInput(ada.ID, g.ID))
	require.NoError(t, err)
	env.clock.t = contestStart.Add(time.Minute)
	_, err = svc.Submit(ctx, SubmitInput{ContestID: contest.ID, UserID: bob.ID, Code: "x", Language: "Go"})
	require.NoError(t, err)

	assertAppError(t, svc.DeleteContest(ctx, contest.ID, bob.ID), models.CodeUnauthorized)
	require.NoError(t, svc.DeleteContest(ctx, contest.ID, ada.ID))

	_, err = svc.GetContest(ctx, contest.ID)
	assertAppError(t, err, models.CodeNotFound)
	assert.Equal(t, 100, env.score(t, bob.ID), "awarded points survive contest deletion")
}
