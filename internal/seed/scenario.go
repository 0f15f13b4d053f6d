// Package seed loads demo data for development and tests. Scenarios are
// YAML documents naming users, their posts and the interactions between
// them; Random fills a database with gofakeit content.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed demo.yml
var demoScenario []byte

// Scenario is a declarative data set.
type Scenario struct {
	Users    []UserSpec    `yaml:"users"`
	Follows  []FollowSpec  `yaml:"follows"`
	Likes    []LikeSpec    `yaml:"likes"`
	Comments []CommentSpec `yaml:"comments"`
}

// UserSpec is a user with an optional profile and posts. Posts require
// a profile.
type UserSpec struct {
	Username string     `yaml:"username"`
	Staff    bool       `yaml:"staff"`
	Bio      *string    `yaml:"bio"`
	Posts    []PostSpec `yaml:"posts"`
}

// PostSpec is a post filed under its user's profile.
type PostSpec struct {
	Key         string   `yaml:"key"`
	Description string   `yaml:"description"`
	Image       string   `yaml:"image"`
	Tags        []string `yaml:"tags"`
}

// FollowSpec makes From follow To. Both users need profiles.
type FollowSpec struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// LikeSpec makes User like the post with the given key.
type LikeSpec struct {
	User string `yaml:"user"`
	Post string `yaml:"post"`
}

// CommentSpec makes User comment on the post with the given key.
type CommentSpec struct {
	User    string `yaml:"user"`
	Post    string `yaml:"post"`
	Content string `yaml:"content"`
}

// DemoScenario returns the built-in alice and bob data set.
func DemoScenario() (*Scenario, error) {
	return ParseScenario(demoScenario)
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(raw)
}

// ParseScenario decodes and checks a scenario document.
func ParseScenario(raw []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that every reference in the scenario resolves.
func (s *Scenario) Validate() error {
	users := make(map[string]bool, len(s.Users))
	profiles := make(map[string]bool, len(s.Users))
	posts := make(map[string]bool)

	for _, u := range s.Users {
		name := strings.TrimSpace(u.Username)
		if name == "" {
			return fmt.Errorf("scenario user without username")
		}
		if users[name] {
			return fmt.Errorf("duplicate scenario user %q", name)
		}
		users[name] = true
		profiles[name] = u.Bio != nil

		if len(u.Posts) > 0 && u.Bio == nil {
			return fmt.Errorf("user %q has posts but no profile", name)
		}
		for _, p := range u.Posts {
			if p.Key == "" {
				continue
			}
			if posts[p.Key] {
				return fmt.Errorf("duplicate post key %q", p.Key)
			}
			posts[p.Key] = true
		}
	}

	for _, f := range s.Follows {
		if !profiles[f.From] || !profiles[f.To] {
			return fmt.Errorf("follow %s -> %s needs two profiles", f.From, f.To)
		}
	}
	for _, l := range s.Likes {
		if !users[l.User] || !posts[l.Post] {
			return fmt.Errorf("like by %q on %q references unknown data", l.User, l.Post)
		}
	}
	for _, c := range s.Comments {
		if !users[c.User] || !posts[c.Post] {
			return fmt.Errorf("comment by %q on %q references unknown data", c.User, c.Post)
		}
	}
	return nil
}
