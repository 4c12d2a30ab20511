package portal

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	sessionmiddleware "github.com/medistream/go-session-middleware"
	"github.com/medistream/go-session-middleware/appointments"
	"github.com/medistream/go-session-middleware/core"
	sessiongin "github.com/medistream/go-session-middleware/framework/gin"
	"github.com/medistream/go-session-middleware/loader"
)

func (s *Server) appointmentsPage(c *gin.Context) {
	id, _ := sessiongin.GetIdentity(c)

	page, err := s.loader.Load(c.Request.Context(), id)
	var redirect *loader.Redirect
	switch {
	case errors.As(err, &redirect):
		c.Redirect(redirect.Code, sessionmiddleware.LoginLocation(c.Request, redirect.Location, s.proxies))
		return
	case errors.Is(err, loader.ErrUnsupportedRole):
		c.JSON(http.StatusForbidden, gin.H{"message": "Your role cannot view appointments."})
		return
	case err != nil:
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (s *Server) getAppointment(c *gin.Context) {
	a, err := s.clientFor(c).Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": a})
}

func (s *Server) createAppointment(c *gin.Context) {
	var in appointments.Appointment
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input: " + err.Error()})
		return
	}
	s.respond(c, http.StatusCreated)(s.clientFor(c).Create(c.Request.Context(), in))
}

func (s *Server) updateAppointment(c *gin.Context) {
	var in appointments.Update
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input: " + err.Error()})
		return
	}
	s.respond(c, http.StatusOK)(s.clientFor(c).Update(c.Request.Context(), c.Param("id"), in))
}

func (s *Server) deleteAppointment(c *gin.Context) {
	s.respond(c, http.StatusOK)(s.clientFor(c).Delete(c.Request.Context(), c.Param("id")))
}

func (s *Server) rescheduleAppointment(c *gin.Context) {
	var in appointments.Reschedule
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input: " + err.Error()})
		return
	}
	s.respond(c, http.StatusOK)(s.clientFor(c).Reschedule(c.Request.Context(), c.Param("id"), in))
}

func (s *Server) cancelAppointment(c *gin.Context) {
	s.respond(c, http.StatusOK)(s.clientFor(c).Cancel(c.Request.Context(), c.Param("id")))
}

func (s *Server) changeStatus(c *gin.Context) {
	var in struct {
		Status appointments.Status `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid input: " + err.Error()})
		return
	}

	client := s.clientFor(c)
	current, err := client.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}

	if err := appointments.ValidateTransition(current.Status, in.Status); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, appointments.ErrTerminalStatus) {
			code = http.StatusConflict
		}
		c.JSON(code, gin.H{"message": err.Error()})
		return
	}

	s.respond(c, http.StatusOK)(client.ChangeStatus(c.Request.Context(), c.Param("id"), in.Status))
}

// clientFor binds the appointment client to the caller's token. The route
// group guarantees an identity.
func (s *Server) clientFor(c *gin.Context) *appointments.Client {
	id, _ := sessiongin.GetIdentity(c)
	return s.client.WithToken(tokenOf(id))
}

func tokenOf(id *core.Identity) string {
	if id == nil {
		return ""
	}
	return id.Token
}

func (s *Server) respond(c *gin.Context, status int) func(*appointments.Result, error) {
	return func(res *appointments.Result, err error) {
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(status, res)
	}
}

// fail surfaces backend refusals with their own status and message. Anything
// else means the backend could not be reached.
func (s *Server) fail(c *gin.Context, err error) {
	var apiErr *appointments.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.StatusCode, gin.H{"message": apiErr.Message})
		return
	}

	if s.logger != nil {
		s.logger.Error("appointment backend unreachable",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err)
	}
	c.JSON(http.StatusBadGateway, gin.H{"message": "Appointment service unavailable."})
}
