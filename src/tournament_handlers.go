package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"pbs/src/common"
	"pbs/src/config"
	"pbs/src/db"
	"pbs/src/models"
	"pbs/src/types"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func tournamentHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/tournaments", func(ctx *gin.Context) {
			gdb := db.GetDb()
			q := gdb.Model(&models.Tournament{}).Preload("Pitch").Order("date asc")
			if upcoming := ctx.Query("upcoming"); upcoming == "true" {
				q = q.Where("date >= ?", time.Now().Format(config.DATE_PARSE_FORMAT))
			}
			var tournaments []models.Tournament
			if err := q.Find(&tournaments).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tournaments, "count": len(tournaments)})
		}).
		GET("/tournaments/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var tournament models.Tournament
			if err := gdb.
				Preload("Pitch").
				Preload("Teams").
				First(&tournament, params.ID).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tournament})
		}).
		POST("/tournaments", func(ctx *gin.Context) {
			var body types.CreateTournamentRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			date, err := time.Parse(config.DATE_PARSE_FORMAT, body.Date)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
				return
			}
			gdb := db.GetDb()
			var tournament models.Tournament
			err = gdb.Transaction(func(tx *gorm.DB) error {
				var pitch models.Pitch
				if err := tx.Preload("Availabilities").First(&pitch, body.PitchID).Error; err != nil {
					return common.NewDomainError(common.NotFound, "pitch_id", "pitch not found")
				}
				role := types.UserRole(ctx.GetString("role"))
				if role != types.ROLE_ADMIN && pitch.OwnerID != ctx.GetUint("id") {
					return common.NewDomainError(common.PermissionDenied, "pitch_id", "only the pitch owner can host a tournament here")
				}
				if err := common.CheckAvailability(pitch.Availabilities, date, body.StartTime, body.EndTime); err != nil {
					return err
				}
				// the slot must be free of regular bookings too
				if err := common.DetectConflict(tx, pitch.ID, date, body.StartTime, body.EndTime, 0); err != nil {
					return err
				}
				tournament = models.Tournament{
					Name:            body.Name,
					PitchID:         pitch.ID,
					OrganizerID:     ctx.GetUint("id"),
					Date:            date,
					StartTime:       body.StartTime,
					EndTime:         body.EndTime,
					MaxTeams:        body.MaxTeams,
					RegistrationFee: body.RegistrationFee,
				}
				if body.Description != "" {
					tournament.Description = &body.Description
				}
				if body.RegistrationDeadline != "" {
					deadline, err := time.Parse(config.DATE_PARSE_FORMAT, body.RegistrationDeadline)
					if err != nil {
						return common.NewDomainError(common.InvalidInterval, "registration_deadline", "invalid date, expected YYYY-MM-DD")
					}
					tournament.RegistrationDeadline = &deadline
				}
				return tx.Create(&tournament).Error
			})
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": tournament})
		}).
		POST("/tournaments/:id/register", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.RegisterTeamRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var team models.TournamentTeam
			err := gdb.Transaction(func(tx *gorm.DB) error {
				var tournament models.Tournament
				if err := tx.First(&tournament, params.ID).Error; err != nil {
					return common.NewDomainError(common.NotFound, "id", "tournament not found")
				}
				now := time.Now()
				if tournament.RegistrationDeadline != nil && now.After(tournament.RegistrationDeadline.AddDate(0, 0, 1)) {
					return common.NewDomainError(common.InvalidInterval, "id", "registration deadline has passed")
				}
				if tournament.MaxTeams != nil {
					var count int64
					if err := tx.
						Model(&models.TournamentTeam{}).
						Where("tournament_id = ?", tournament.ID).
						Count(&count).
						Error; err != nil {
						return err
					}
					if count >= int64(*tournament.MaxTeams) {
						return common.NewDomainError(common.SlotConflict, "id", "tournament is full")
					}
				}
				var dup int64
				if err := tx.
					Model(&models.TournamentTeam{}).
					Where("tournament_id = ? AND captain_id = ?", tournament.ID, ctx.GetUint("id")).
					Count(&dup).
					Error; err != nil {
					return err
				}
				if dup > 0 {
					return common.NewDomainError(common.SlotConflict, "id", "you already registered a team")
				}
				team = models.TournamentTeam{
					TournamentID: tournament.ID,
					Name:         body.Name,
					CaptainID:    ctx.GetUint("id"),
					ContactEmail: body.ContactEmail,
					ContactPhone: body.ContactPhone,
				}
				if err := tx.Create(&team).Error; err != nil {
					if strings.Contains(err.Error(), "idx_tournament_team") {
						return common.NewDomainError(common.SlotConflict, "name", "team name already taken")
					}
					return err
				}
				return nil
			})
			if err != nil {
				abortWithDomainError(ctx, err)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": team})
		}).
		DELETE("/tournaments/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var tournament models.Tournament
			if err := gdb.First(&tournament, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			role := types.UserRole(ctx.GetString("role"))
			if role != types.ROLE_ADMIN && tournament.OrganizerID != ctx.GetUint("id") {
				ctx.Status(http.StatusForbidden)
				return
			}
			if err := gdb.Transaction(func(tx *gorm.DB) error {
				if err := tx.
					Where("tournament_id = ?", tournament.ID).
					Delete(&models.TournamentTeam{}).
					Error; err != nil {
					return err
				}
				return tx.Delete(&tournament).Error
			}); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("could not delete tournament: %s", err.Error())})
				return
			}
			ctx.Status(http.StatusNoContent)
		})
	return g
}
