package server

import (
	"profilegraph/internal/repository"
	"profilegraph/internal/service"

	"github.com/gofiber/fiber/v2"
)

// profileRequest is the JSON or multipart body of profile writes. The
// picture travels as the multipart file field "profile_picture".
type profileRequest struct {
	Bio *string `json:"bio" form:"bio"`
}

// ListProfiles handles GET /api/profile
// @Summary List profiles
// @Description Lists profiles, optionally filtered by a case-insensitive username substring
// @Tags profiles
// @Produce json
// @Param username query string false "Username substring"
// @Param limit query int false "Max results" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} views.ProfileListItem
// @Failure 403 {object} models.ErrorResponse
// @Router /profile [get]
func (s *Server) ListProfiles(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	page := parsePagination(c, defaultPageSize)
	profiles, err := s.profileService.ListProfiles(c.UserContext(), actor, repository.ListProfilesFilter{
		Username: c.Query("username"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(profiles)
}

// GetProfile handles GET /api/profile/:id
// @Summary Get a profile
// @Description Returns the profile detail; the owner receives the editable shape
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Success 200 {object} views.ProfileDetail
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	profile, err := s.profileService.GetProfile(c.UserContext(), actor, id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(profile)
}

// CreateProfile handles POST /api/profile
// @Summary Create a profile
// @Description Creates the caller's profile. Each user may own one profile.
// @Tags profiles
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param bio formData string false "Biography"
// @Param profile_picture formData file false "Profile picture"
// @Success 201 {object} views.ProfileDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /profile [post]
func (s *Server) CreateProfile(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	var req profileRequest
	if err := bindBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	picture, err := formUpload(c, "profile_picture")
	if err != nil {
		return s.respondError(c, err)
	}

	in := service.CreateProfileInput{Picture: picture}
	if req.Bio != nil {
		in.Bio = *req.Bio
	}

	profile, err := s.profileService.CreateProfile(c.UserContext(), actor, in)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// UpdateProfile handles PUT /api/profile/:id
// @Summary Replace a profile
// @Description Replaces the bio (omitted means cleared) and optionally the picture
// @Tags profiles
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Param bio formData string false "Biography"
// @Param profile_picture formData file false "Profile picture"
// @Success 200 {object} views.ProfileDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{id} [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	return s.updateProfile(c, false)
}

// PartialUpdateProfile handles PATCH /api/profile/:id
// @Summary Update a profile
// @Description Updates only the given fields
// @Tags profiles
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Param bio formData string false "Biography"
// @Param profile_picture formData file false "Profile picture"
// @Success 200 {object} views.ProfileDetail
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{id} [patch]
func (s *Server) PartialUpdateProfile(c *fiber.Ctx) error {
	return s.updateProfile(c, true)
}

func (s *Server) updateProfile(c *fiber.Ctx, partial bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	var req profileRequest
	if err := bindBody(c, &req); err != nil {
		return s.respondError(c, err)
	}
	picture, err := formUpload(c, "profile_picture")
	if err != nil {
		return s.respondError(c, err)
	}

	profile, err := s.profileService.UpdateProfile(c.UserContext(), actor, id,
		service.UpdateProfileInput{Bio: req.Bio, Picture: picture}, partial)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(profile)
}

// DeleteProfile handles DELETE /api/profile/:id
// @Summary Delete a profile
// @Description Deletes the profile with its posts, likes, comments and follow edges
// @Tags profiles
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{id} [delete]
func (s *Server) DeleteProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	if err := s.profileService.DeleteProfile(c.UserContext(), actor, id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FollowProfile handles POST /api/profile/:id/follow
// @Summary Follow a profile
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Success 200 {object} views.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{id}/follow [post]
func (s *Server) FollowProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	result, err := s.profileService.Follow(c.UserContext(), actor, id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}

// UnfollowProfile handles POST /api/profile/:id/unfollow
// @Summary Unfollow a profile
// @Description Idempotent; unfollowing a profile you do not follow succeeds
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Profile ID"
// @Success 200 {object} views.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profile/{id}/unfollow [post]
func (s *Server) UnfollowProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	result, err := s.profileService.Unfollow(c.UserContext(), actor, id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(result)
}
