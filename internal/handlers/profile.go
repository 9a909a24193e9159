package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"userconsole"
	"userconsole/internal/service"
)

type profilePage struct {
	Title string
	User  userconsole.User
}

// profile shows the signed-in user. A URL carrying another id is corrected
// to the session's own id.
func (h *Handler) profile(c *gin.Context) {
	st := h.services.Session(sessionID(c)).Auth(c.Request.Context())
	if !st.Authenticated {
		if st.Err != nil && h.log != nil {
			h.log.Infow("session_rejected", "err", st.Err)
		}
		redirect(c, service.PathSignIn)
		return
	}

	if c.Param("userId") != strconv.Itoa(st.User.ID) {
		c.Redirect(http.StatusFound, service.ProfilePath(st.User.ID))
		return
	}

	c.HTML(http.StatusOK, "profile.html", profilePage{Title: "Profile", User: *st.User})
}
