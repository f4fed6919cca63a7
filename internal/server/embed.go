package server

import (
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vesaa/alertdesk/webui"
)

// RegisterStaticFiles mounts the embedded front end: the index template at "/"
// and the asset tree under /static.
func RegisterStaticFiles(r *gin.Engine) {
	tmpl := template.Must(template.New("").ParseFS(webui.FS, "web/index.html"))
	r.SetHTMLTemplate(tmpl)

	staticFS, err := fs.Sub(webui.FS, "web/static")
	if err != nil {
		panic("embed: web/static sub-fs failed: " + err.Error())
	}
	r.StaticFS("/static", http.FS(staticFS))

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", gin.H{
			"Title": "alertdesk",
		})
	})
}
