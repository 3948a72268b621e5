package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/classconnect-api/internal/models"
	appErrors "github.com/noah-isme/classconnect-api/pkg/errors"
)

// pathID parses a positive numeric path parameter.
func pathID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

// queryID parses an optional numeric query parameter. Missing or blank
// values report ok=false; "0" is a valid explicit choice.
func queryID(c *gin.Context, name string) (id int64, ok bool, err error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, false, nil
	}
	id, err = strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, false, appErrors.Clone(appErrors.ErrValidation, name+" must be a non-negative integer")
	}
	return id, true, nil
}

// queryInt parses an optional positive integer query parameter.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return n, nil
}

// listOptions reads page, page_size, fields and the parent filter named
// parentParam from the query string.
func listOptions(c *gin.Context, parentParam string) (models.ListOptions, error) {
	var opts models.ListOptions
	parentID, filtered, err := queryID(c, parentParam)
	if err != nil {
		return opts, err
	}
	if filtered {
		opts.ParentID = &parentID
	}
	if opts.Page, err = queryInt(c, "page"); err != nil {
		return opts, err
	}
	if opts.PageSize, err = queryInt(c, "page_size"); err != nil {
		return opts, err
	}
	if raw := strings.TrimSpace(c.Query("fields")); raw != "" {
		opts.Fields = strings.Split(raw, ",")
	}
	return opts, nil
}

func paginationMeta(p *models.Pagination) map[string]interface{} {
	return map[string]interface{}{"page": p.Page, "page_size": p.PageSize, "total_count": p.TotalCount}
}

func bindFields(c *gin.Context) (models.Fields, error) {
	var fields models.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	if fields == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid payload")
	}
	return fields, nil
}

func bindBatch(c *gin.Context) ([]models.Fields, error) {
	var batch []models.Fields
	if err := c.ShouldBindJSON(&batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return batch, nil
}
