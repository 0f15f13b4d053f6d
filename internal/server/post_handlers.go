package server

import (
	"profilegraph/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postRequest is the body of post writes. In multipart requests "image" is
// a file field; in JSON it is a previously stored image reference.
type postRequest struct {
	Description *string  `json:"description" form:"description"`
	Image       *string  `json:"image" form:"image"`
	Tags        []string `json:"tags" form:"tags"`
}

type contentRequest struct {
	Content string `json:"content" form:"content"`
}

type tagRequest struct {
	Name string `json:"name" form:"name"`
}

// ListPosts handles GET /api/post
// @Summary List posts
// @Description Lists posts newest first. tags is a comma separated list matched as case-insensitive substrings of any tag on the post.
// @Tags posts
// @Produce json
// @Param tags query string false "Comma separated tag fragments"
// @Param profile_id query int false "Only posts filed under this profile"
// @Param limit query int false "Max results" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} views.PostListItem
// @Failure 403 {object} models.ErrorResponse
// @Router /post [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	profileID := c.QueryInt("profile_id", 0)
	if profileID < 0 {
		profileID = 0
	}

	page := parsePagination(c, defaultPageSize)
	posts, err := s.postService.ListPosts(c.UserContext(), actor, service.ListPostsInput{
		Tags:      splitList(c.Query("tags")),
		ProfileID: uint(profileID),
		Limit:     page.Limit,
		Offset:    page.Offset,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/post/:id
// @Summary Get a post
// @Description Returns the post detail with its comments; the author receives the editable shape
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} views.PostDetail
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), actor, id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/post
// @Summary Create a post
// @Description Files a post under the caller's profile. An image is required.
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param description formData string false "Description"
// @Param tags formData []string false "Tag names"
// @Param image formData file true "Image"
// @Success 201 {object} views.PostDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /post [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	var req postRequest
	if err := bindBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	image, err := formUpload(c, "image")
	if err != nil {
		return s.respondError(c, err)
	}

	in := service.CreatePostInput{Tags: req.Tags, Image: image}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Image != nil {
		in.ImageRef = *req.Image
	}

	post, err := s.postService.CreatePost(c.UserContext(), actor, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/post/:id
// @Summary Replace a post
// @Description Replaces the description; the image is only replaced when one is given
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param description formData string true "Description"
// @Param image formData file false "Image"
// @Success 200 {object} views.PostDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	return s.updatePost(c, false)
}

// PartialUpdatePost handles PATCH /api/post/:id
// @Summary Update a post
// @Tags posts
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param description formData string false "Description"
// @Param image formData file false "Image"
// @Success 200 {object} views.PostDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id} [patch]
func (s *Server) PartialUpdatePost(c *fiber.Ctx) error {
	return s.updatePost(c, true)
}

func (s *Server) updatePost(c *fiber.Ctx, partial bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	var req postRequest
	if err := bindBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	image, err := formUpload(c, "image")
	if err != nil {
		return s.respondError(c, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), actor, id, service.UpdatePostInput{
		Description: req.Description,
		Image:       image,
		ImageRef:    req.Image,
	}, partial)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/post/:id
// @Summary Delete a post
// @Description Deletes the post with its likes, comments and tag links
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), actor, id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddLike handles POST /api/post/:id/add_like
// @Summary Like a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} views.ActionResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/add_like [post]
func (s *Server) AddLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	result, err := s.postService.Like(c.UserContext(), actor, id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}

// RemoveLike handles POST /api/post/:id/remove_like
// @Summary Remove a like
// @Description Fails with NOT_LIKED when the caller has not liked the post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} views.ActionResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/remove_like [post]
func (s *Server) RemoveLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	result, err := s.postService.Unlike(c.UserContext(), actor, id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}

// AddComment handles POST /api/post/:id/add_comment
// @Summary Comment on a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body contentRequest true "Comment"
// @Success 200 {object} views.ActionResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/add_comment [post]
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	var req contentRequest
	if err := bindBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	result, err := s.postService.AddComment(c.UserContext(), actor, id, req.Content)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}

// AddTag handles POST /api/post/:id/add_tag
// @Summary Tag a post
// @Description Links the named tag to the post, creating the tag when needed. Author only.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body tagRequest true "Tag"
// @Success 200 {object} views.PostDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/add_tag [post]
func (s *Server) AddTag(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	var req tagRequest
	if err := bindBody(c, &req); err != nil {
		return s.respondError(c, err)
	}

	post, err := s.postService.AddTag(c.UserContext(), actor, id, req.Name)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// ListComments handles GET /api/post/:id/comments
// @Summary List a post's comments
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {array} views.CommentView
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), actor, id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(comments)
}
