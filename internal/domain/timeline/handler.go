package timeline

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	contentTypeSVG  = "image/svg+xml"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	svc      *Service
	template TemplateWriter
}

func NewHandler(svc *Service, tw TemplateWriter) *Handler {
	return &Handler{svc: svc, template: tw}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, api *echo.Group) {
	e.GET("/", h.UploadPage)
	e.POST("/timeline", h.RenderPage)
	e.GET("/template.xlsx", h.Template)

	api.POST("/timeline", h.RenderSVG)
}

// ErrorResponse is the JSON body returned for rejected uploads.
type ErrorResponse struct {
	Error  string `json:"error"`
	Table  string `json:"table,omitempty"`
	Column string `json:"column,omitempty"`
	Row    int    `json:"row,omitempty"`
}

// UploadPage godoc
// @Summary Upload page
// @Description Shows the workbook upload form.
// @Tags timeline
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router / [get]
func (h *Handler) UploadPage(c echo.Context) error {
	return h.writePage(c, http.StatusOK, nil, "")
}

// RenderPage godoc
// @Summary Render timeline page
// @Description Renders the uploaded workbook as an HTML page with the chart inline.
// @Tags timeline
// @Accept multipart/form-data
// @Produce html
// @Param file formData file true "Timeline workbook (.xlsx)"
// @Success 200 {string} string "HTML page"
// @Failure 400 {string} string "HTML page with error"
// @Failure 422 {string} string "HTML page with error"
// @Router /timeline [post]
func (h *Handler) RenderPage(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		if he := tooLarge(err); he != nil {
			return he
		}
		return h.writePage(c, http.StatusBadRequest, nil, "file is required")
	}
	src, err := file.Open()
	if err != nil {
		return h.writePage(c, http.StatusInternalServerError, nil, "failed to open uploaded file")
	}
	defer src.Close()

	var chart bytes.Buffer
	if _, err := h.svc.Render(c.Request().Context(), src, &chart); err != nil {
		if IsInputError(err) {
			return h.writePage(c, http.StatusUnprocessableEntity, nil, err.Error())
		}
		return err
	}
	return h.writePage(c, http.StatusOK, chart.Bytes(), "")
}

// RenderSVG godoc
// @Summary Render timeline chart
// @Description Renders the uploaded workbook as an SVG chart.
// @Tags timeline
// @Accept multipart/form-data
// @Produce image/svg+xml
// @Param file formData file true "Timeline workbook (.xlsx)"
// @Success 200 {string} string "SVG document"
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/v1/timeline [post]
func (h *Handler) RenderSVG(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		if he := tooLarge(err); he != nil {
			return he
		}
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to open uploaded file"})
	}
	defer src.Close()

	var chart bytes.Buffer
	if _, err := h.svc.Render(c.Request().Context(), src, &chart); err != nil {
		if IsInputError(err) {
			return c.JSON(http.StatusUnprocessableEntity, errorResponse(err))
		}
		return err
	}
	return c.Blob(http.StatusOK, contentTypeSVG, chart.Bytes())
}

// Template godoc
// @Summary Input workbook template
// @Description Downloads an empty workbook with the expected column blocks.
// @Tags timeline
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /template.xlsx [get]
func (h *Handler) Template(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.template.WriteTemplate(&buf); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="timeline-template.xlsx"`)
	return c.Blob(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

func (h *Handler) writePage(c echo.Context, status int, chart []byte, errMsg string) error {
	var buf bytes.Buffer
	if err := WritePage(&buf, chart, errMsg); err != nil {
		return err
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func errorResponse(err error) ErrorResponse {
	resp := ErrorResponse{Error: err.Error()}
	var ie *InputError
	if errors.As(err, &ie) {
		resp.Table = string(ie.Table)
		resp.Column = ie.Column
		resp.Row = ie.Row
	}
	return resp
}

// tooLarge surfaces the body limit error raised while the multipart form
// was being read.
func tooLarge(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge {
		return he
	}
	return nil
}
