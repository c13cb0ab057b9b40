// backend-go/internal/api/handlers/project_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/predichain/backend-go/internal/domain"
	"github.com/predichain/backend-go/internal/repository"
)

// ProjectHandler serves the project registry CRUD.
type ProjectHandler struct {
	store repository.ProjectStore
}

func NewProjectHandler(store repository.ProjectStore) *ProjectHandler {
	return &ProjectHandler{store: store}
}

func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.store.List(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	repository.SortProjects(projects)
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *ProjectHandler) Add(c *gin.Context) {
	var project domain.Project
	if err := c.ShouldBindJSON(&project); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid project payload: "+err.Error())
		return
	}
	if project.Name == "" {
		errorResponse(c, http.StatusBadRequest, "project name is required")
		return
	}

	created, err := h.store.Add(c.Request.Context(), project)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ProjectHandler) Remove(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "project id must be an integer")
		return
	}

	if err := h.store.Remove(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			errorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
