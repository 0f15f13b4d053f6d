package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"profilegraph/internal/middleware"
	"profilegraph/internal/models"
	"profilegraph/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Seeder writes seed data through the repositories, so uniqueness and
// ownership rules hold for seeded rows the same way they do for API writes.
type Seeder struct {
	db       *gorm.DB
	users    repository.UserRepository
	profiles repository.ProfileRepository
	posts    repository.PostRepository
	likes    repository.LikeRepository
	comments repository.CommentRepository
}

// Result indexes the rows a scenario created.
type Result struct {
	Users    map[string]*models.User
	Profiles map[string]*models.Profile
	Posts    map[string]*models.Post
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{
		db:       db,
		users:    repository.NewUserRepository(db),
		profiles: repository.NewProfileRepository(db),
		posts:    repository.NewPostRepository(db),
		likes:    repository.NewLikeRepository(db),
		comments: repository.NewCommentRepository(db),
	}
}

// ClearAll deletes every seeded table, join tables first.
func (s *Seeder) ClearAll() error {
	tables := []string{
		"post_tags", "profile_followers", "profile_following",
		"comments", "likes", "posts", "tags", "profiles", "users",
	}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	middleware.Logger.Info("seed: cleared tables", slog.Int("tables", len(tables)))
	return nil
}

// Apply creates everything the scenario names.
func (s *Seeder) Apply(ctx context.Context, scn *Scenario) (*Result, error) {
	res := &Result{
		Users:    make(map[string]*models.User),
		Profiles: make(map[string]*models.Profile),
		Posts:    make(map[string]*models.Post),
	}

	for _, u := range scn.Users {
		user := &models.User{Username: strings.TrimSpace(u.Username), IsStaff: u.Staff}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user %s: %w", u.Username, err)
		}
		res.Users[user.Username] = user

		if u.Bio == nil {
			continue
		}
		profile := &models.Profile{UserID: user.ID, Bio: *u.Bio}
		if err := s.profiles.Create(ctx, profile); err != nil {
			return nil, fmt.Errorf("create profile for %s: %w", user.Username, err)
		}
		res.Profiles[user.Username] = profile

		for i, p := range u.Posts {
			post := &models.Post{
				UserID:      user.ID,
				ProfileID:   profile.ID,
				Image:       imageRef(user.Username, p.Image),
				Description: p.Description,
			}
			if err := s.posts.Create(ctx, post, p.Tags); err != nil {
				return nil, fmt.Errorf("create post %d for %s: %w", i, user.Username, err)
			}
			if p.Key != "" {
				res.Posts[p.Key] = post
			}
		}
	}

	for _, f := range scn.Follows {
		source, target := res.Profiles[f.From], res.Profiles[f.To]
		if err := s.profiles.Follow(ctx, source, target); err != nil {
			return nil, fmt.Errorf("follow %s -> %s: %w", f.From, f.To, err)
		}
	}

	for _, l := range scn.Likes {
		like := &models.Like{UserID: res.Users[l.User].ID, PostID: res.Posts[l.Post].ID}
		if err := s.likes.Create(ctx, like); err != nil {
			return nil, fmt.Errorf("like %s by %s: %w", l.Post, l.User, err)
		}
	}

	for _, c := range scn.Comments {
		comment := &models.Comment{UserID: res.Users[c.User].ID, PostID: res.Posts[c.Post].ID, Content: c.Content}
		if err := s.comments.Create(ctx, comment); err != nil {
			return nil, fmt.Errorf("comment on %s by %s: %w", c.Post, c.User, err)
		}
	}

	middleware.Logger.Info("seed: scenario applied",
		slog.Int("users", len(res.Users)),
		slog.Int("posts", len(res.Posts)),
		slog.Int("follows", len(scn.Follows)),
	)
	return res, nil
}

// Random builds a scenario of numUsers users sharing numPosts posts, with
// random follows, likes and comments between them.
func Random(numUsers, numPosts int, seed int64) *Scenario {
	faker := gofakeit.New(seed)
	r := rand.New(rand.NewSource(seed))

	scn := &Scenario{}
	names := make([]string, 0, numUsers)
	seen := make(map[string]bool, numUsers)
	for len(names) < numUsers {
		name := strings.ToLower(faker.Username())
		if seen[name] {
			name = fmt.Sprintf("%s%d", name, len(names))
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)

		bio := faker.Sentence(8)
		scn.Users = append(scn.Users, UserSpec{Username: name, Bio: &bio})
	}
	if numUsers == 0 {
		return scn
	}

	for i := 0; i < numPosts; i++ {
		owner := r.Intn(numUsers)
		tags := make([]string, 0, 3)
		for j := r.Intn(4); j > 0; j-- {
			tags = append(tags, faker.HackerNoun())
		}
		scn.Users[owner].Posts = append(scn.Users[owner].Posts, PostSpec{
			Key:         fmt.Sprintf("post-%d", i),
			Description: faker.Sentence(10),
			Tags:        tags,
		})
	}

	following := make(map[[2]int]bool)
	for i := range names {
		for k := r.Intn(4); k > 0; k-- {
			j := r.Intn(numUsers)
			if j == i || following[[2]int{i, j}] {
				continue
			}
			following[[2]int{i, j}] = true
			scn.Follows = append(scn.Follows, FollowSpec{From: names[i], To: names[j]})
		}
	}

	liked := make(map[string]bool)
	for i := 0; i < numPosts; i++ {
		key := fmt.Sprintf("post-%d", i)
		for k := r.Intn(5); k > 0; k-- {
			user := names[r.Intn(numUsers)]
			if liked[user+"/"+key] {
				continue
			}
			liked[user+"/"+key] = true
			scn.Likes = append(scn.Likes, LikeSpec{User: user, Post: key})
		}
		if r.Intn(2) == 0 {
			scn.Comments = append(scn.Comments, CommentSpec{
				User:    names[r.Intn(numUsers)],
				Post:    key,
				Content: faker.Sentence(6),
			})
		}
	}
	return scn
}

// imageRef returns the given reference or a placeholder under post_images.
func imageRef(username, ref string) string {
	if ref != "" {
		return ref
	}
	return fmt.Sprintf("post_images/%s-%s.jpg", username, gofakeit.UUID())
}
