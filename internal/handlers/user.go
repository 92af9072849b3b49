package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/dimitrije/aiden-dashboard/internal/access"
	"github.com/dimitrije/aiden-dashboard/internal/authstate"
	"github.com/dimitrije/aiden-dashboard/internal/middleware"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

var (
	profileReaders = []models.Role{models.RoleSuperAdmin, models.RoleLeadership}
	profileWriters = []models.Role{models.RoleSuperAdmin}
)

// UserHandler serves the caller's own profile and, for privileged roles,
// the profiles of others.
type UserHandler struct {
	profiles    ProfileServiceInterface
	resolver    *authstate.ProfileResolver
	events      EventBroadcaster
	phoneRegion string
}

func NewUserHandler(profiles ProfileServiceInterface, phoneRegion string) *UserHandler {
	return &UserHandler{
		profiles:    profiles,
		resolver:    authstate.NewProfileResolver(profiles, nil, nil),
		events:      noopBroadcaster{},
		phoneRegion: phoneRegion,
	}
}

// WithEvents makes profile updates announce themselves on the owner's event
// streams.
func (h *UserHandler) WithEvents(events EventBroadcaster) *UserHandler {
	h.events = events
	return h
}

// GetMe never 404s: a caller without a profile row gets the fallback
// employee record.
func (h *UserHandler) GetMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	user := h.resolver.Resolve(c.Request.Context(), models.Identity{
		ID:    userID,
		Email: middleware.GetUserEmail(c),
	})
	_ = c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

func (h *UserHandler) UpdateMe(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}
	h.update(c, userID)
}

func (h *UserHandler) GetProfile(c *drift.Context) {
	id, ok := h.target(c, profileReaders)
	if !ok {
		return
	}

	user, err := h.profiles.GetProfile(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, authstate.ErrProfileNotFound) {
			c.NotFound("profile not found")
			return
		}
		log.Printf("profiles: failed to load %s: %v", id, err)
		c.InternalServerError("failed to load profile")
		return
	}

	_ = c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

func (h *UserHandler) UpdateProfile(c *drift.Context) {
	id, ok := h.target(c, profileWriters)
	if !ok {
		return
	}
	h.update(c, id)
}

// target resolves the :id path parameter. Callers may always address
// themselves; anyone else needs one of privileged.
func (h *UserHandler) target(c *drift.Context, privileged []models.Role) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid profile id")
		return uuid.Nil, false
	}

	callerID := middleware.GetUserID(c)
	if callerID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, false
	}
	if id != callerID && !access.Allowed(middleware.GetUserRole(c), privileged) {
		c.Forbidden("not allowed to access this profile")
		return uuid.Nil, false
	}
	return id, true
}

func (h *UserHandler) update(c *drift.Context, id uuid.UUID) {
	var req dto.UpdateProfileRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	update, err := req.ToUpdate(h.phoneRegion)
	if err != nil {
		c.BadRequest(err.Error())
		return
	}
	if update.IsEmpty() {
		c.BadRequest("no fields to update")
		return
	}

	user, err := h.profiles.Update(c.Request.Context(), id, update)
	if err != nil {
		if errors.Is(err, authstate.ErrProfileNotFound) {
			c.NotFound("profile not found")
			return
		}
		log.Printf("profiles: failed to update %s: %v", id, err)
		c.InternalServerError("failed to update profile")
		return
	}
	h.events.BroadcastProfileUpdate(id, middleware.GetUserID(c))

	_ = c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
