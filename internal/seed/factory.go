// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"time"

	"codelearn/internal/models"
	"codelearn/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "password123"

var (
	colleges    = []string{"MIT", "Stanford", "IIT Bombay", "ETH Zurich", "University of Toronto"}
	departments = []string{"CSE", "ECE", "Mathematics", "Physics", "Data Science"}
	topics      = []string{"arrays", "strings", "graphs", "dp", "greedy", "trees", "math", "sorting", "two-pointers", "bit-manipulation"}

	classicProblems = []string{
		"Merge Intervals", "Top K Frequent Elements", "Binary Tree Level Order Traversal",
		"Course Schedule", "Trapping Rain Water", "LRU Cache", "Word Break",
		"Kth Largest Element", "Product of Array Except Self", "Serialize and Deserialize Binary Tree",
	}

	snippets = map[string]string{
		"Go":         "func solve(nums []int) int {\n\treturn len(nums)\n}",
		"Python":     "def solve(nums):\n    return len(nums)",
		"JavaScript": "function solve(nums) {\n  return nums.length;\n}",
		"TypeScript": "function solve(nums: number[]): number {\n  return nums.length;\n}",
		"Java":       "int solve(int[] nums) {\n    return nums.length;\n}",
		"C++":        "int solve(vector<int>& nums) {\n    return nums.size();\n}",
		"Rust":       "fn solve(nums: &[i32]) -> usize {\n    nums.len()\n}",
	}

	difficulties = []models.Difficulty{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard}
)

// Factory builds randomized service inputs. It never touches the database.
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory returns a factory seeded with seed, or with the clock when seed is 0.
func NewFactory(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{faker: gofakeit.New(seed)}
}

// UserInput builds a registration for the i-th seeded user. The index keeps
// emails unique across a run.
func (f *Factory) UserInput(i int) service.RegisterInput {
	first, last := f.faker.FirstName(), f.faker.LastName()
	local := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, i))
	return service.RegisterInput{
		Name:       first + " " + last,
		Email:      strings.ReplaceAll(local, " ", "") + "@codelearn.dev",
		Password:   DefaultPassword,
		College:    f.faker.RandomString(colleges),
		Department: f.faker.RandomString(departments),
		Year:       f.faker.Number(1, 4),
	}
}

// GroupInput builds a study group owned by creatorID. About one in four is private.
func (f *Factory) GroupInput(creatorID uint) service.CreateGroupInput {
	return service.CreateGroupInput{
		CreatorID:   creatorID,
		Name:        f.faker.AppName() + " Study Group",
		Description: f.faker.Sentence(10),
		IsPrivate:   f.faker.Number(1, 4) == 1,
	}
}

// PostInput builds a solution post by authorID in one of the languages with a snippet.
func (f *Factory) PostInput(authorID uint) service.CreatePostInput {
	language := f.faker.RandomString(snippetLanguages())
	tags := make([]string, 0, 3)
	for n := f.faker.Number(1, 3); len(tags) < n; {
		tags = append(tags, f.faker.RandomString(topics))
	}
	return service.CreatePostInput{
		AuthorID:   authorID,
		Title:      f.faker.RandomString(classicProblems),
		Problem:    f.faker.Paragraph(1, 3, 12, " "),
		Code:       snippets[language],
		Language:   language,
		Tags:       tags,
		Difficulty: difficulties[f.faker.Number(0, len(difficulties)-1)],
	}
}

// CommentInput builds a comment on postID. Every third comment carries code.
func (f *Factory) CommentInput(postID, userID uint) service.AddCommentInput {
	in := service.AddCommentInput{
		PostID:  postID,
		UserID:  userID,
		Content: f.faker.Sentence(12),
	}
	if f.faker.Number(1, 3) == 1 {
		in.Language = f.faker.RandomString(snippetLanguages())
		in.Code = snippets[in.Language]
	}
	return in
}

func (f *Factory) ReplyContent() string {
	return f.faker.Sentence(8)
}

// Pick returns a pseudo-random index below n.
func (f *Factory) Pick(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

// Chance reports true with probability 1/n.
func (f *Factory) Chance(n int) bool {
	return f.faker.Number(1, n) == 1
}

func snippetLanguages() []string {
	langs := make([]string, 0, len(snippets))
	for _, l := range models.SupportedLanguages {
		if _, ok := snippets[l]; ok {
			langs = append(langs, l)
		}
	}
	return langs
}
