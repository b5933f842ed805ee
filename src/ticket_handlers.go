package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"ers/src/lib"
	"ers/src/store"
	"ers/src/types"
	"ers/src/utils"
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeqown/go-qrcode"
)

func ticketHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/tickets", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			tickets, err := store.GetStore().ListTicketsByUser(ctx, userId)
			if err != nil {
				log.Printf("Error listing tickets for user [%d]: %s\n", userId, err.Error())
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets})
		}).
		GET("/tickets/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			ticket, err := store.GetStore().FindTicket(ctx, params.ID, userId)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": ticket})
		}).
		GET("/tickets/:id/qrcode", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			ticket, err := store.GetStore().FindTicket(ctx, params.ID, userId)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			if ticket.Status != types.TICKET_UPCOMING {
				err := errors.New("ticket is no longer valid")
				ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}

			filename := fmt.Sprintf("ticket-%d", ticket.ID)
			tempdir := os.Getenv("TEMP_DIR")
			filepath := path.Join(tempdir, filename+".jpeg")

			rd := lib.GetRedisClient()
			if rd != nil {
				if cached := rd.Get(context.Background(), filename).Val(); cached != "" {
					ctx.FileAttachment(cached, "eticket.jpeg")
					return
				}
			}

			rawData := map[string]any{
				"ticketId":     ticket.ID,
				"ticketNumber": ticket.TicketNumber,
			}
			rawBytes, _ := json.Marshal(rawData)

			keyEnv := os.Getenv("API_QRC_SECRET")
			key, err := hex.DecodeString(keyEnv)
			if err != nil {
				log.Printf("Could not read key from string: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			encryptedMessage, err := utils.EncryptMessage(key, string(rawBytes))
			if err != nil {
				log.Printf("Error encrypting message: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			qrc, err := qrcode.New(encryptedMessage)
			if err != nil {
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if err := qrc.Save(filepath); err != nil {
				log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if rd != nil {
				rd.SetEx(context.Background(), filename, filepath, 2*time.Hour)
			}
			ctx.FileAttachment(filepath, "eticket.jpeg")
		}).
		PATCH("/tickets/:id/checkin", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.CheckinRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId := ctx.GetUint("id")
			s := store.GetStore()
			ticket, err := s.FindTicket(ctx, params.ID, userId)
			if err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}

			keyEnv := os.Getenv("API_QRC_SECRET")
			key, err := hex.DecodeString(keyEnv)
			if err != nil {
				log.Printf("Could not read key from string: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			message, err := utils.DecryptMessage(key, body.Code)
			if err != nil {
				log.Printf("Error decrypting ticket code: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket code"})
				return
			}
			var rawData map[string]any
			if err := json.Unmarshal([]byte(*message), &rawData); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket code"})
				return
			}
			number, _ := rawData["ticketNumber"].(string)
			if number != ticket.TicketNumber {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "ticket code does not match"})
				return
			}

			if err := s.UpdateTicketStatus(ctx, params.ID, types.TICKET_UPCOMING, types.TICKET_ATTENDED); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					ctx.JSON(http.StatusConflict, gin.H{"error": "ticket cannot be checked in"})
					return
				}
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		PATCH("/tickets/:id/cancel", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			userId := ctx.GetUint("id")
			s := store.GetStore()
			if _, err := s.FindTicket(ctx, params.ID, userId); err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if err := s.UpdateTicketStatus(ctx, params.ID, types.TICKET_UPCOMING, types.TICKET_CANCELLED); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					ctx.JSON(http.StatusConflict, gin.H{"error": "ticket cannot be cancelled"})
					return
				}
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
