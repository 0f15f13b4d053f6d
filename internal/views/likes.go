// Package views renders models into the response shapes chosen by policy.
package views

import (
	"encoding/json"
	"fmt"
	"sort"

	"profilegraph/internal/models"
)

// Likes is a post's like list as shown to clients. It marshals either as a
// list of usernames or, once summarised, as a single sentence.
type Likes struct {
	Usernames []string
	Summary   string
}

// MarshalJSON implements json.Marshaler.
func (l Likes) MarshalJSON() ([]byte, error) {
	if l.Summary != "" {
		return json.Marshal(l.Summary)
	}
	if l.Usernames == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.Usernames)
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (l *Likes) UnmarshalJSON(data []byte) error {
	var summary string
	if err := json.Unmarshal(data, &summary); err == nil {
		*l = Likes{Summary: summary}
		return nil
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*l = Likes{Usernames: names}
	return nil
}

// SummarizeLikes lists likers in like order (earliest first). With
// collapse set and two or more likes it returns
// "<first> and <n-1> other users" instead.
func SummarizeLikes(likes []models.Like, collapse bool) Likes {
	ordered := make([]models.Like, len(likes))
	copy(ordered, likes)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	if collapse && len(ordered) >= 2 {
		return Likes{Summary: fmt.Sprintf("%s and %d other users", ordered[0].User.Username, len(ordered)-1)}
	}

	names := make([]string, 0, len(ordered))
	for _, like := range ordered {
		names = append(names, like.User.Username)
	}
	return Likes{Usernames: names}
}
