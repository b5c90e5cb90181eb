package timeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler(raw *RawTables) (*Handler, *echo.Echo) {
	svc, _, _ := newTestService(raw, nil)
	h := NewHandler(svc, fakeTemplate{})
	e := echo.New()
	return h, e
}

func uploadRequest(t *testing.T, target string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "timeline.xlsx")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte("workbook"))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

func TestHandler_UploadPage(t *testing.T) {
	h, e := newTestHandler(exampleTables())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.UploadPage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, PageTitle) || !strings.Contains(body, `name="file"`) {
		t.Error("expected upload form in page")
	}
}

func TestHandler_RenderPage(t *testing.T) {
	h, e := newTestHandler(exampleTables())
	rec := httptest.NewRecorder()
	c := e.NewContext(uploadRequest(t, "/timeline"), rec)
	if err := h.RenderPage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<svg>partial</svg>") {
		t.Error("expected chart embedded in page")
	}
}

func TestHandler_RenderPage_InputError(t *testing.T) {
	h, e := newTestHandler(&RawTables{})
	rec := httptest.NewRecorder()
	c := e.NewContext(uploadRequest(t, "/timeline"), rec)
	if err := h.RenderPage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ErrNoData.Error()) {
		t.Error("expected error message in page")
	}
}

func TestHandler_RenderPage_MissingFile(t *testing.T) {
	h, e := newTestHandler(exampleTables())
	req := httptest.NewRequest(http.MethodPost, "/timeline", strings.NewReader(""))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.RenderPage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_RenderSVG(t *testing.T) {
	h, e := newTestHandler(exampleTables())
	rec := httptest.NewRecorder()
	c := e.NewContext(uploadRequest(t, "/api/v1/timeline"), rec)
	if err := h.RenderSVG(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != contentTypeSVG {
		t.Errorf("expected %s, got %s", contentTypeSVG, ct)
	}
}

func TestHandler_RenderSVG_InputError(t *testing.T) {
	raw := &RawTables{Steroids: rows(TableSteroids, steroidCols, []string{"Budesonide", "01/01/2024", "02/01/2024", "3"})}
	h, e := newTestHandler(raw)
	rec := httptest.NewRecorder()
	c := e.NewContext(uploadRequest(t, "/api/v1/timeline"), rec)
	if err := h.RenderSVG(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Table != string(TableSteroids) || resp.Column != ColSteroid || resp.Row != 2 {
		t.Errorf("unexpected error response %+v", resp)
	}
}

func TestHandler_RenderSVG_ServerError(t *testing.T) {
	svc, r, _ := newTestService(exampleTables(), nil)
	r.err = errors.New("boom")
	h := NewHandler(svc, fakeTemplate{})
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(uploadRequest(t, "/api/v1/timeline"), rec)
	if err := h.RenderSVG(c); err == nil {
		t.Error("expected error to propagate to the echo error handler")
	}
}

func TestHandler_Template(t *testing.T) {
	h, e := newTestHandler(nil)
	req := httptest.NewRequest(http.MethodGet, "/template.xlsx", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h.Template(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != contentTypeXLSX {
		t.Errorf("expected %s, got %s", contentTypeXLSX, ct)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "attachment") {
		t.Errorf("expected attachment disposition, got %q", cd)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler(exampleTables())
	h.RegisterRoutes(e, e.Group("/api/v1"))

	want := map[string]bool{
		"GET /":                 false,
		"POST /timeline":        false,
		"GET /template.xlsx":    false,
		"POST /api/v1/timeline": false,
	}
	for _, r := range e.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for k, found := range want {
		if !found {
			t.Errorf("route %s not registered", k)
		}
	}
}

func TestWritePage_StripsProlog(t *testing.T) {
	var buf bytes.Buffer
	chart := []byte("<?xml version=\"1.0\"?>\n<svg></svg>")
	if err := WritePage(&buf, chart, "bad <input>"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<?xml") {
		t.Error("expected XML prolog to be removed")
	}
	if !strings.Contains(out, "<svg></svg>") {
		t.Error("expected chart embedded unescaped")
	}
	if !strings.Contains(out, "bad &lt;input&gt;") {
		t.Error("expected error message to be escaped")
	}
}
