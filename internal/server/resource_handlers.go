package server

import (
	"github.com/gofiber/fiber/v2"
)

type likeRequest struct {
	PostID uint `json:"post_id" form:"post_id"`
}

type commentRequest struct {
	PostID  uint   `json:"post_id" form:"post_id"`
	Content string `json:"content" form:"content"`
}

// CreateLike handles POST /api/like
// @Summary Like a post by id
// @Tags likes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body likeRequest true "Like"
// @Success 201 {object} views.LikeView
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /like [post]
func (s *Server) CreateLike(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	var req likeRequest
	if err := bindBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	like, err := s.likeService.CreateLike(c.UserContext(), actor, req.PostID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(like)
}

// DeleteLike handles DELETE /api/like/:id
// @Summary Delete a like
// @Description Only the user who left the like (or staff) may delete it
// @Tags likes
// @Security BearerAuth
// @Param id path int true "Like ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /like/{id} [delete]
func (s *Server) DeleteLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	if err := s.likeService.DeleteLike(c.UserContext(), actor, id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateComment handles POST /api/comment
// @Summary Comment on a post by id
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body commentRequest true "Comment"
// @Success 201 {object} views.CommentView
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /comment [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := bindBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), actor, req.PostID, req.Content)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ListTags handles GET /api/tag
// @Summary List tags
// @Tags tags
// @Produce json
// @Security BearerAuth
// @Success 200 {array} views.TagView
// @Failure 403 {object} models.ErrorResponse
// @Router /tag [get]
func (s *Server) ListTags(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	tags, err := s.tagService.ListTags(c.UserContext(), actor)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(tags)
}

// CreateTag handles POST /api/tag
// @Summary Create a tag
// @Description Always inserts; tag names are not unique
// @Tags tags
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body tagRequest true "Tag"
// @Success 201 {object} views.TagView
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /tag [post]
func (s *Server) CreateTag(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	var req tagRequest
	if err := bindBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	tag, err := s.tagService.CreateTag(c.UserContext(), actor, req.Name)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}
