package release

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"releasedesk/internal/blob"
	"releasedesk/internal/domain/feed"
	"releasedesk/internal/pkg/response"
)

type Handler struct {
	store  ReleaseStore
	events EventPublisher
}

// NewHandler wires the release endpoints. events may be nil.
func NewHandler(store ReleaseStore, events EventPublisher) *Handler {
	return &Handler{store: store, events: events}
}

// List godoc
// GET /api/v1/releases
func (h *Handler) List(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ToResponses(list))
}

// Get godoc
// GET /api/v1/releases/:id
func (h *Handler) Get(c *gin.Context) {
	r, err := h.store.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ToResponse(r))
}

// Create godoc
// POST /api/v1/releases (multipart/form-data)
func (h *Handler) Create(c *gin.Context) {
	in, files, ok := h.bindForm(c)
	if !ok {
		return
	}

	r, err := h.store.Create(c.Request.Context(), in, files)
	if err != nil {
		_ = c.Error(err)
		response.FromError(c, err)
		return
	}

	h.publish(feed.EventReleaseCreated, r.ID, ToResponse(r))
	response.Success(c, http.StatusCreated, ToResponse(r))
}

// Update godoc
// PUT /api/v1/releases/:id (multipart/form-data, full replacement)
func (h *Handler) Update(c *gin.Context) {
	in, files, ok := h.bindForm(c)
	if !ok {
		return
	}

	r, err := h.store.Update(c.Request.Context(), c.Param("id"), in, files)
	if err != nil {
		_ = c.Error(err)
		response.FromError(c, err)
		return
	}

	h.publish(feed.EventReleaseUpdated, r.ID, ToResponse(r))
	response.Success(c, http.StatusOK, ToResponse(r))
}

// Delete godoc
// DELETE /api/v1/releases/:id
func (h *Handler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		response.FromError(c, err)
		return
	}

	h.publish(feed.EventReleaseDeleted, id, nil)
	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (h *Handler) bindForm(c *gin.Context) (Input, Attachments, bool) {
	var form ReleaseForm
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return Input{}, Attachments{}, false
	}

	in, err := form.ToInput()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return Input{}, Attachments{}, false
	}

	var files Attachments
	if files.Cover, err = formFile(c, "cover"); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return Input{}, Attachments{}, false
	}
	if files.Audio, err = formFile(c, "audio"); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return Input{}, Attachments{}, false
	}

	return in, files, true
}

// formFile returns nil when the part was not sent.
func formFile(c *gin.Context, name string) (*blob.File, error) {
	fh, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s upload: %w", name, err)
	}
	f, err := readPart(fh)
	if err != nil {
		return nil, fmt.Errorf("unreadable %s upload", name)
	}
	return f, nil
}

func (h *Handler) publish(eventType, id string, payload interface{}) {
	if h.events == nil {
		return
	}
	h.events.Publish(feed.Event{Type: eventType, ReleaseID: id, Payload: payload})
}
