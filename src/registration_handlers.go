package main

import (
	"errors"
	"ers/src/gateway"
	"ers/src/lib"
	"ers/src/models"
	"ers/src/store"
	"ers/src/types"
	"ers/src/wizard"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

var sessions = wizard.NewRegistry(2 * time.Hour)

type teamMemberURIParams struct {
	SessionID string `uri:"sid" binding:"required,uuid"`
	Index     int    `uri:"index"`
}

func sessionView(s *wizard.Session) gin.H {
	w := s.Wizard
	view := gin.H{
		"session_id": s.ID,
		"event_id":   s.EventID,
		"state":      w.State(),
		"draft":      w.Draft(),
	}
	if err := w.Err(); err != nil {
		view["error"] = err.Error()
	}
	if ticket := w.Ticket(); ticket != nil {
		view["ticket"] = ticket
	}
	return view
}

// submitErrorStatus maps the workflow's error classes onto response codes.
func submitErrorStatus(err error) int {
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity
	}
	var perr *wizard.PaymentInitiationError
	if errors.As(err, &perr) {
		return http.StatusPaymentRequired
	}
	var cerr *wizard.PersistenceConflictError
	if errors.As(err, &cerr) {
		return http.StatusConflict
	}
	var uerr *wizard.PersistenceUnavailableError
	if errors.As(err, &uerr) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadRequest
}

func lookupSession(ctx *gin.Context) (*wizard.Session, bool) {
	var params types.SessionURIParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.Status(http.StatusBadRequest)
		return nil, false
	}
	userId := ctx.GetUint("id")
	s, ok := sessions.Get(params.SessionID, userId)
	if !ok {
		ctx.Status(http.StatusNotFound)
		return nil, false
	}
	return s, true
}

func registrationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/events/:id/registrations", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.StartRegistrationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			provider := gateway.Provider(body.Provider)
			if provider == "" {
				provider = gateway.ProviderStellar
			}
			gw, err := gateway.Get(provider)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			s := store.GetStore()
			event, err := s.FindEvent(ctx, params.ID)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			if event.Status != types.EVENT_PUBLISHED {
				ctx.JSON(http.StatusConflict, gin.H{"error": "event is not open for registration"})
				return
			}

			userId := ctx.GetUint("id")
			user := &models.User{
				ID:    userId,
				Name:  ctx.GetString("name"),
				Email: ctx.GetString("email"),
			}
			w := wizard.New(wizard.Config{
				Event:   event,
				User:    user,
				Store:   s,
				Gateway: gw,
				OnSuccess: func(ticket *models.Ticket) {
					go sendTicketEmail(user.Email, ticket)
				},
			})
			session := sessions.Create(userId, event.ID, w)
			log.Printf("Started registration session [%s] for event [%d]\n", session.ID, event.ID)
			ctx.JSON(http.StatusCreated, sessionView(session))
		}).
		GET("/registrations/:sid", func(ctx *gin.Context) {
			s, ok := lookupSession(ctx)
			if !ok {
				return
			}
			s.Lock()
			defer s.Unlock()
			ctx.JSON(http.StatusOK, sessionView(s))
		}).
		PUT("/registrations/:sid/fields", func(ctx *gin.Context) {
			s, ok := lookupSession(ctx)
			if !ok {
				return
			}
			var body types.UpdateFieldRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			s.Lock()
			defer s.Unlock()
			if err := s.Wizard.UpdateField(body.Field, body.Value); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, sessionView(s))
		}).
		POST("/registrations/:sid/advance", func(ctx *gin.Context) {
			s, ok := lookupSession(ctx)
			if !ok {
				return
			}
			s.Lock()
			defer s.Unlock()
			if err := s.Wizard.Advance(); err != nil {
				var verr *wizard.ValidationError
				if errors.As(err, &verr) {
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{
						"error":  err.Error(),
						"fields": verr.Fields,
					})
					return
				}
				ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, sessionView(s))
		}).
		POST("/registrations/:sid/retreat", func(ctx *gin.Context) {
			s, ok := lookupSession(ctx)
			if !ok {
				return
			}
			s.Lock()
			defer s.Unlock()
			if err := s.Wizard.Retreat(); err != nil {
				ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			view := sessionView(s)
			if s.Wizard.State() == wizard.StateCancelled {
				sessions.Delete(s.ID)
			}
			ctx.JSON(http.StatusOK, view)
		}).
		POST("/registrations/:sid/team", func(ctx *gin.Context) {
			s, ok := lookupSession(ctx)
			if !ok {
				return
			}
			s.Lock()
			defer s.Unlock()
			if err := s.Wizard.AddTeamMember(); err != nil {
				ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, sessionView(s))
		}).
		PUT("/registrations/:sid/team/:index", func(ctx *gin.Context) {
			s, params, ok := lookupTeamSession(ctx)
			if !ok {
				return
			}
			var body types.TeamMemberRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			s.Lock()
			defer s.Unlock()
			if err := s.Wizard.UpdateTeamMember(params.Index, body.Name); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, sessionView(s))
		}).
		DELETE("/registrations/:sid/team/:index", func(ctx *gin.Context) {
			s, params, ok := lookupTeamSession(ctx)
			if !ok {
				return
			}
			s.Lock()
			defer s.Unlock()
			if err := s.Wizard.RemoveTeamMember(params.Index); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, sessionView(s))
		}).
		POST("/registrations/:sid/submit", func(ctx *gin.Context) {
			s, ok := lookupSession(ctx)
			if !ok {
				return
			}
			s.Lock()
			defer s.Unlock()
			if err := s.Wizard.Submit(ctx); err != nil {
				ctx.JSON(submitErrorStatus(err), sessionView(s))
				return
			}
			view := sessionView(s)
			// flow complete, draft is discarded
			sessions.Delete(s.ID)
			ctx.JSON(http.StatusCreated, view)
		}).
		POST("/registrations/:sid/retry", func(ctx *gin.Context) {
			s, ok := lookupSession(ctx)
			if !ok {
				return
			}
			s.Lock()
			defer s.Unlock()
			if err := s.Wizard.Retry(); err != nil {
				ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, sessionView(s))
		}).
		DELETE("/registrations/:sid", func(ctx *gin.Context) {
			s, ok := lookupSession(ctx)
			if !ok {
				return
			}
			s.Lock()
			state := s.Wizard.State()
			s.Unlock()
			if state == wizard.StateSubmitting {
				ctx.JSON(http.StatusConflict, gin.H{"error": "submission in progress"})
				return
			}
			sessions.Delete(s.ID)
			ctx.Status(http.StatusNoContent)
		})
	return g
}

func lookupTeamSession(ctx *gin.Context) (*wizard.Session, teamMemberURIParams, bool) {
	var params teamMemberURIParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.Status(http.StatusBadRequest)
		return nil, params, false
	}
	userId := ctx.GetUint("id")
	s, ok := sessions.Get(params.SessionID, userId)
	if !ok {
		ctx.Status(http.StatusNotFound)
		return nil, params, false
	}
	return s, params, true
}

func sendTicketEmail(email string, ticket *models.Ticket) {
	if email == "" {
		return
	}
	body := fmt.Sprintf(`
	<p>Your registration for <b>%s</b> is confirmed.</p>
	<p>Ticket number: <b>%s</b></p>
	<p>Date: %s %s</p>
	<p>Location: %s</p>
`, ticket.EventName, ticket.TicketNumber, ticket.Date, ticket.Time, ticket.Location)
	if err := lib.SendMail(&lib.SendMailInput{
		From:     os.Getenv("SMTP_FROM"),
		FromName: "noreply",
		Subject:  "Your ticket is confirmed",
		To:       []string{email},
		Body:     body,
		Html:     true,
	}); err != nil {
		log.Printf("Could not send confirmation email to [%s]: %s\n", email, err.Error())
	}
}
