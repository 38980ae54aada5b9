package http

import (
	"embed"
	"html/template"
	stdhttp "net/http"
	"regexp"

	"github.com/gin-gonic/gin"
)

//go:embed pages/*.html
var pagesFS embed.FS

var inviteIDPattern = regexp.MustCompile(`^[0-9a-zA-Z]+$`)

const (
	pageInvite = "invite.html"
	pageDev    = "dev.html"
)

func loadPages() *template.Template {
	return template.Must(template.ParseFS(pagesFS, "pages/*.html"))
}

// InviteHandler renders the landing page for an invite link. Ids that are
// not alphanumeric fall through to the not-found handler.
func InviteHandler(development bool) gin.HandlerFunc {
	page := pageInvite
	if development {
		page = pageDev
	}
	return func(c *gin.Context) {
		id := c.Param("id")
		if !inviteIDPattern.MatchString(id) {
			notFoundHandler(c)
			return
		}
		c.HTML(stdhttp.StatusOK, page, gin.H{"RoomID": id})
	}
}

func notFoundHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusNotFound, ErrorResponse{Error: "not found"})
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}
