package views

import (
	"time"

	"profilegraph/internal/models"
	"profilegraph/internal/policy"
)

// Options carries per-request rendering switches.
type Options struct {
	// CollapseLikes enables the like summary sentence.
	CollapseLikes bool
}

// ProfileListItem is the compact profile used in list responses.
type ProfileListItem struct {
	ID             uint   `json:"id"`
	UserID         uint   `json:"user_id"`
	Username       string `json:"username"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
}

// ProfileDetail is the single-profile shape. Editable is only set for the
// profile's owner (and for staff edits).
type ProfileDetail struct {
	ProfileListItem
	Followers  []string       `json:"followers"`
	Following  []string       `json:"following"`
	PostsCount int            `json:"posts_count"`
	Posts      []PostListItem `json:"posts"`
	Editable   bool           `json:"editable,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// PostListItem is the compact post used in list responses. It omits comments.
type PostListItem struct {
	ID            uint      `json:"id"`
	ProfileID     uint      `json:"profile_id"`
	Author        string    `json:"author"`
	Image         string    `json:"image"`
	Description   string    `json:"description"`
	Tags          []string  `json:"tags"`
	Likes         Likes     `json:"likes"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// PostDetail is the single-post shape with comments.
type PostDetail struct {
	PostListItem
	Comments  []CommentView `json:"comments"`
	UpdatedAt time.Time     `json:"updated_at"`
	Editable  bool          `json:"editable,omitempty"`
}

// CommentView is a rendered comment.
type CommentView struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"post_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeView is a rendered like.
type LikeView struct {
	ID        uint      `json:"id"`
	PostID    uint      `json:"post_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// TagView is a rendered tag.
type TagView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// FollowResult is returned by follow and unfollow.
type FollowResult struct {
	Profile     interface{}   `json:"profile"`
	UserProfile ProfileDetail `json:"user_profile"`
}

func usernames(users []models.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.Username)
	}
	return out
}

func profileListItem(p *models.Profile) ProfileListItem {
	return ProfileListItem{
		ID:             p.ID,
		UserID:         p.UserID,
		Username:       p.Username(),
		Bio:            p.Bio,
		ProfilePicture: p.ProfilePicture,
		FollowersCount: len(p.Followers),
		FollowingCount: len(p.Following),
	}
}

// ProfileList renders profiles for the list shape.
func ProfileList(profiles []models.Profile) []ProfileListItem {
	out := make([]ProfileListItem, 0, len(profiles))
	for i := range profiles {
		out = append(out, profileListItem(&profiles[i]))
	}
	return out
}

// Profile renders a single profile in the given shape. List shapes fall
// back to the compact item.
func Profile(p *models.Profile, shape policy.Shape, opts Options) interface{} {
	if shape == policy.ShapeProfileList {
		return profileListItem(p)
	}
	return ProfileDetailOf(p, shape == policy.ShapeProfileEditable, opts)
}

// ProfileDetailOf renders the detail shape with or without the edit marker.
func ProfileDetailOf(p *models.Profile, editable bool, opts Options) ProfileDetail {
	return ProfileDetail{
		ProfileListItem: profileListItem(p),
		Followers:       usernames(p.Followers),
		Following:       usernames(p.Following),
		PostsCount:      len(p.Posts),
		Posts:           PostList(p.Posts, opts),
		Editable:        editable,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func postListItem(p *models.Post, opts Options) PostListItem {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}
	count := p.CommentsCount
	if len(p.Comments) > count {
		count = len(p.Comments)
	}
	return PostListItem{
		ID:            p.ID,
		ProfileID:     p.ProfileID,
		Author:        p.User.Username,
		Image:         p.Image,
		Description:   p.Description,
		Tags:          tags,
		Likes:         SummarizeLikes(p.Likes, opts.CollapseLikes),
		LikesCount:    len(p.Likes),
		CommentsCount: count,
		CreatedAt:     p.CreatedAt,
	}
}

// PostList renders posts for the list shape.
func PostList(posts []models.Post, opts Options) []PostListItem {
	out := make([]PostListItem, 0, len(posts))
	for i := range posts {
		out = append(out, postListItem(&posts[i], opts))
	}
	return out
}

// Post renders a single post in the given shape.
func Post(p *models.Post, shape policy.Shape, opts Options) interface{} {
	if shape == policy.ShapePostList {
		return postListItem(p, opts)
	}
	comments := make([]CommentView, 0, len(p.Comments))
	for i := range p.Comments {
		comments = append(comments, Comment(&p.Comments[i]))
	}
	return PostDetail{
		PostListItem: postListItem(p, opts),
		Comments:     comments,
		UpdatedAt:    p.UpdatedAt,
		Editable:     shape == policy.ShapePostFull,
	}
}

// Comment renders a comment.
func Comment(c *models.Comment) CommentView {
	return CommentView{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    c.User.Username,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

// Like renders a like.
func Like(l *models.Like) LikeView {
	return LikeView{
		ID:        l.ID,
		PostID:    l.PostID,
		Username:  l.User.Username,
		CreatedAt: l.CreatedAt,
	}
}

// Tags renders tags.
func Tags(tags []models.Tag) []TagView {
	out := make([]TagView, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagView{ID: t.ID, Name: t.Name})
	}
	return out
}

// ActionResult acknowledges a social action on a post.
type ActionResult struct {
	Detail  string       `json:"detail"`
	Like    *LikeView    `json:"like,omitempty"`
	Comment *CommentView `json:"comment,omitempty"`
}
