package main

import (
	"ers/src/store"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func rewardHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/rewards", func(ctx *gin.Context) {
			userId := ctx.GetUint("id")
			rewards, total, err := store.GetStore().ListRewardsByUser(ctx, userId)
			if err != nil {
				log.Printf("Error listing rewards for user [%d]: %s\n", userId, err.Error())
				ctx.Status(http.StatusServiceUnavailable)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": rewards, "total_points": total})
		})
	return g
}
