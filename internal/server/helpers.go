package server

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"profilegraph/internal/middleware"
	"profilegraph/internal/models"
	"profilegraph/internal/policy"
	"profilegraph/internal/storage"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPageSize    = 20
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "postId" -> "post ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		return strings.ToLower(param[:len(param)-2]) + " ID"
	}
	return param
}

// splitList parses a comma separated query value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// respondError writes err with the status its kind maps to. Errors that are
// not AppErrors are reported as internal errors.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}

	switch {
	case appErr.Kind == models.KindInternal:
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", appErr.Error()),
		)
	case appErr.Code == models.CodeRequiresStaff:
		middleware.Logger.InfoContext(c.UserContext(), "staff-only action denied",
			slog.String("path", c.Path()),
		)
	}

	return models.RespondWithError(c, appErr.Status(), appErr)
}

// actor resolves the caller identity. Anonymous requests yield the zero
// Actor. A token whose user no longer exists is rejected with 401 and
// errResponseWritten is returned.
func (s *Server) actor(c *fiber.Ctx) (policy.Actor, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return policy.Actor{}, nil
	}

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			_ = models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthenticatedError("invalid user ID in token"))
		} else {
			_ = s.respondError(c, err)
		}
		return policy.Actor{}, errResponseWritten
	}

	return policy.Actor{UserID: user.ID, Username: user.Username, IsStaff: user.IsStaff}, nil
}

// bindBody decodes a JSON, urlencoded or multipart body into dst. An empty
// body leaves dst untouched.
func bindBody(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(dst); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// isMultipart reports whether the request carries a multipart form.
func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm)
}

// formUpload reads the file in the given multipart field. It returns nil
// when the request is not multipart or the field is absent.
func formUpload(c *fiber.Ctx, field string) (*storage.Upload, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if err != nil {
		// Absent file fields are not an error; the service decides.
		return nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &storage.Upload{Filename: fh.Filename, Content: content}, nil
}
