package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/goliatone/go-user-cache/internal/apperr"
	"github.com/goliatone/go-user-cache/internal/user"
)

// UserService is what the handlers need from the user service.
type UserService interface {
	CreateUser(ctx context.Context, req user.CreateRequest) (user.Response, error)
	GetUser(ctx context.Context, id int64) (user.Response, error)
	ListUsers(ctx context.Context, req user.PageRequest) (user.Page, error)
	UpdateUser(ctx context.Context, id int64, req user.UpdateRequest) (user.Response, error)
	DeleteUser(ctx context.Context, id int64) error
}

type UserHandler struct {
	svc    UserService
	logger *zap.Logger
}

func NewUserHandler(svc UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

func (h *UserHandler) Create(c *gin.Context) {
	var in user.CreateRequest
	if !h.bind(c, &in) {
		return
	}

	res, err := h.svc.CreateUser(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/v1/users/%d", res.ID))
	c.JSON(http.StatusCreated, res)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	res, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.writeCacheable(c, res)
}

func (h *UserHandler) List(c *gin.Context) {
	req, err := pageRequest(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	page, err := h.svc.ListUsers(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.writeCacheable(c, page)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var in user.UpdateRequest
	if !h.bind(c, &in) {
		return
	}

	res, err := h.svc.UpdateUser(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) bind(c *gin.Context, dst any) bool {
	dec := json.NewDecoder(c.Request.Body)
	err := dec.Decode(dst)
	if err == nil {
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			err = errors.New("unexpected data after the JSON value")
		}
	}
	if err != nil {
		writeError(c, h.logger, apperr.Wrap(err, apperr.KindValidation, apperr.CodeBadRequest,
			"Request body is missing or malformed."))
		return false
	}
	return true
}

func (h *UserHandler) pathID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(c, h.logger, apperr.Wrap(err, apperr.KindValidation, apperr.CodeBadRequest,
			fmt.Sprintf("'id' parameter value '%s' has an invalid type.", raw)))
		return 0, false
	}
	return id, true
}

// writeCacheable renders v with an ETag and answers 304 when the client's copy is current.
func (h *UserHandler) writeCacheable(c *gin.Context, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(c, h.logger, apperr.Internal(err))
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(data))
	c.Header("ETag", etag)
	if etagMatches(c.GetHeader("If-None-Match"), etag) {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// etagMatches applies the weak comparison If-None-Match requires: "*" matches
// anything, otherwise any listed tag equal to etag once W/ is dropped.
func etagMatches(header, etag string) bool {
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" {
			return true
		}
		if strings.TrimPrefix(tag, "W/") == etag {
			return true
		}
	}
	return false
}

func pageRequest(c *gin.Context) (user.PageRequest, error) {
	req := user.DefaultPageRequest()

	if raw, ok := c.GetQuery("page"); ok {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return req, invalidQuery("page", raw)
		}
		req.Page = page
	}
	if raw, ok := c.GetQuery("size"); ok {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return req, invalidQuery("size", raw)
		}
		req.Size = size
	}

	sort, err := user.ParseSort(c.Query("sort"))
	if err != nil {
		return req, apperr.Validation(err.Error(), apperr.FieldError{
			Field:         "sort",
			Message:       err.Error(),
			RejectedValue: c.Query("sort"),
		})
	}
	req.Sort = sort

	if err := req.Validate(); err != nil {
		return req, apperr.Validation(err.Error())
	}
	return req, nil
}

func invalidQuery(name, raw string) error {
	msg := fmt.Sprintf("'%s' parameter value '%s' has an invalid type.", name, raw)
	return apperr.Validation(msg, apperr.FieldError{Field: name, Message: msg, RejectedValue: raw})
}
