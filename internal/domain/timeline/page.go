package timeline

import (
	"bytes"
	"html/template"
	"io"
)

// PageTitle is shown on the upload page and in rendered pages.
const PageTitle = "Clinical data summary"

const pageDescription = "A simple tool for helping summarise clinical data for patients who have had " +
	"quite complex protracted hospital stays. Often useful for patients with ID/inflammatory issues. " +
	"It plots medication dates, steroid doses/dates, lab results (e.g. CRP) and can add annotations " +
	"with freetext of pertinent clinical events."

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem; color: #222; }
.error { background: #fdecea; border: 1px solid #f5c2c0; padding: .75rem 1rem; margin: 1rem 0; }
.chart svg { max-width: 100%; height: auto; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Description}}</p>
<p>Fill in the <a href="/template.xlsx">input workbook</a>. Use <code>ongoing</code> as the finish date of treatments that have not stopped.</p>
<form method="post" action="/timeline" enctype="multipart/form-data">
<label for="file">Choose a file</label>
<input type="file" id="file" name="file" accept=".xlsx,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" required>
<button type="submit">Plot</button>
</form>
{{if .Error}}<div class="error" role="alert">{{.Error}}</div>{{end}}
{{if .Chart}}<div class="chart">{{.Chart}}</div>{{end}}
</body>
</html>
`))

// PageData feeds the upload/result page.
type PageData struct {
	Title       string
	Description string
	Error       string
	Chart       template.HTML
}

// WritePage renders the upload page. chart must be a trusted SVG document
// produced by a Renderer; it is embedded unescaped.
func WritePage(w io.Writer, chart []byte, errMsg string) error {
	return pageTmpl.Execute(w, PageData{
		Title:       PageTitle,
		Description: pageDescription,
		Error:       errMsg,
		Chart:       template.HTML(stripProlog(chart)),
	})
}

// stripProlog drops the XML declaration, which is not allowed inside HTML.
func stripProlog(doc []byte) []byte {
	doc = bytes.TrimSpace(doc)
	if !bytes.HasPrefix(doc, []byte("<?xml")) {
		return doc
	}
	if i := bytes.Index(doc, []byte("?>")); i >= 0 {
		return bytes.TrimSpace(doc[i+2:])
	}
	return doc
}
