package main

import (
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"path"
	"strconv"
	"time"

	"pbs/src/common"
	"pbs/src/config"
	"pbs/src/db"
	awslib "pbs/src/lib/aws"
	"pbs/src/models"
	"pbs/src/types"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// haversineKm is the great-circle distance between two coordinates.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func pitchOwnerOrAdmin(ctx *gin.Context, pitch *models.Pitch) bool {
	role := types.UserRole(ctx.GetString("role"))
	return role == types.ROLE_ADMIN || pitch.OwnerID == ctx.GetUint("id")
}

func pitchHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		GET("/pitches", func(ctx *gin.Context) {
			gdb := db.GetDb()
			var pitches []models.Pitch
			q := gdb.Model(&models.Pitch{}).Preload("Availabilities").Order("name asc")
			if s := ctx.Query("surface_type"); s != "" {
				q = q.Where("surface_type = ?", s)
			}
			if loc := ctx.Query("location"); loc != "" {
				q = q.Where("location ILIKE ?", "%"+loc+"%")
			}
			if maxPrice := ctx.Query("price__lte"); maxPrice != "" {
				if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
					q = q.Where("price_per_hour <= ?", v)
				}
			}
			if err := q.Find(&pitches).Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": pitches, "count": len(pitches)})
		}).
		GET("/pitches/nearby", func(ctx *gin.Context) {
			lat, err1 := strconv.ParseFloat(ctx.Query("lat"), 64)
			lng, err2 := strconv.ParseFloat(ctx.Query("lng"), 64)
			if err1 != nil || err2 != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
				return
			}
			radiusKm := 10.0
			if r := ctx.Query("radius"); r != "" {
				if v, err := strconv.ParseFloat(r, 64); err == nil && v > 0 {
					radiusKm = v
				}
			}
			gdb := db.GetDb()
			var pitches []models.Pitch
			if err := gdb.
				Where("latitude IS NOT NULL AND longitude IS NOT NULL").
				Find(&pitches).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			nearby := []models.Pitch{}
			for _, p := range pitches {
				if haversineKm(lat, lng, *p.Latitude, *p.Longitude) <= radiusKm {
					nearby = append(nearby, p)
				}
			}
			ctx.JSON(http.StatusOK, gin.H{"data": nearby, "count": len(nearby)})
		}).
		GET("/pitches/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var pitch models.Pitch
			if err := gdb.
				Preload("Availabilities").
				Preload("Owner").
				First(&pitch, params.ID).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": pitch})
		}).
		GET("/pitches/:id/availability", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var pitch models.Pitch
			if err := gdb.First(&pitch, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			var entries []models.PitchAvailability
			if err := gdb.
				Where(&models.PitchAvailability{PitchID: pitch.ID}).
				Order("day_of_week asc").
				Find(&entries).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			date := ctx.Query("date")
			if date == "" {
				ctx.JSON(http.StatusOK, gin.H{"data": entries})
				return
			}
			day, err := time.Parse(config.DATE_PARSE_FORMAT, date)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "date must be in YYYY-MM-DD format"})
				return
			}
			weekday := common.WeekdayIndex(day)
			var dayEntry *models.PitchAvailability
			for i := range entries {
				if entries[i].DayOfWeek == weekday {
					dayEntry = &entries[i]
					break
				}
			}
			// booked intervals let clients work out the free slots themselves
			var booked []models.Booking
			gdb.
				Model(&models.Booking{}).
				Select("start_time", "end_time").
				Where("pitch_id = ? AND date = ?", params.ID, date).
				Where("status IN ?", []types.BookingStatus{types.BOOKING_PENDING, types.BOOKING_CONFIRMED}).
				Order("start_time asc").
				Find(&booked)
			slots := make([]gin.H, 0, len(booked))
			for _, b := range booked {
				slots = append(slots, gin.H{"start_time": b.StartTime, "end_time": b.EndTime})
			}
			ctx.JSON(http.StatusOK, gin.H{"data": dayEntry, "date": date, "booked": slots})
		}).
		GET("/pitches/:id/reviews", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var reviews []models.Review
			if err := gdb.
				Where(&models.Review{PitchID: params.ID}).
				Preload("Player").
				Order("created_at desc").
				Find(&reviews).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			var avg float64
			for _, r := range reviews {
				avg += float64(r.Rating)
			}
			if len(reviews) > 0 {
				avg /= float64(len(reviews))
			}
			ctx.JSON(http.StatusOK, gin.H{"data": reviews, "count": len(reviews), "average_rating": avg})
		}).
		POST("/pitches", func(ctx *gin.Context) {
			role := types.UserRole(ctx.GetString("role"))
			if role != types.ROLE_OWNER && role != types.ROLE_ADMIN {
				ctx.Status(http.StatusForbidden)
				return
			}
			var body types.CreatePitchRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			pitch := models.Pitch{
				Name:         body.Name,
				Slug:         slug.Make(body.Name),
				Location:     body.Location,
				Latitude:     body.Latitude,
				Longitude:    body.Longitude,
				SurfaceType:  types.SurfaceType(body.SurfaceType),
				Size:         body.Size,
				PricePerHour: body.PricePerHour,
				OwnerID:      ctx.GetUint("id"),
			}
			if body.Description != "" {
				pitch.Description = &body.Description
			}
			gdb := db.GetDb()
			if err := gdb.Transaction(func(tx *gorm.DB) error {
				return tx.Create(&pitch).Error
			}); err != nil {
				log.Printf("Error creating pitch: %s\n", err.Error())
				ctx.Status(http.StatusUnprocessableEntity)
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": pitch})
		}).
		PATCH("/pitches/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.CreatePitchRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var pitch models.Pitch
			if err := gdb.First(&pitch, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if !pitchOwnerOrAdmin(ctx, &pitch) {
				ctx.Status(http.StatusForbidden)
				return
			}
			updates := map[string]any{
				"name":           body.Name,
				"slug":           slug.Make(body.Name),
				"location":       body.Location,
				"surface_type":   body.SurfaceType,
				"size":           body.Size,
				"price_per_hour": body.PricePerHour,
			}
			if body.Description != "" {
				updates["description"] = body.Description
			}
			if body.Latitude != nil {
				updates["latitude"] = *body.Latitude
			}
			if body.Longitude != nil {
				updates["longitude"] = *body.Longitude
			}
			if err := gdb.
				Model(&models.Pitch{}).
				Where("id = ?", pitch.ID).
				Updates(updates).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			gdb.First(&pitch, params.ID)
			ctx.JSON(http.StatusOK, gin.H{"data": pitch})
		}).
		DELETE("/pitches/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var pitch models.Pitch
			if err := gdb.First(&pitch, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if !pitchOwnerOrAdmin(ctx, &pitch) {
				ctx.Status(http.StatusForbidden)
				return
			}
			if err := gdb.Transaction(func(tx *gorm.DB) error {
				var count int64
				if err := tx.
					Model(&models.Booking{}).
					Where("pitch_id = ?", pitch.ID).
					Where("status IN ?", []types.BookingStatus{types.BOOKING_PENDING, types.BOOKING_CONFIRMED}).
					Count(&count).
					Error; err != nil {
					return err
				}
				if count > 0 {
					return fmt.Errorf("pitch has %d active bookings", count)
				}
				return tx.Delete(&pitch).Error
			}); err != nil {
				ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusNoContent)
		}).
		PUT("/pitches/:id/availability", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			var body types.UpsertAvailabilityRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gdb := db.GetDb()
			var pitch models.Pitch
			if err := gdb.First(&pitch, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if !pitchOwnerOrAdmin(ctx, &pitch) {
				ctx.Status(http.StatusForbidden)
				return
			}
			available := true
			if body.IsAvailable != nil {
				available = *body.IsAvailable
			}
			entry := models.PitchAvailability{
				PitchID:     pitch.ID,
				DayOfWeek:   *body.DayOfWeek,
				OpeningTime: body.OpeningTime,
				ClosingTime: body.ClosingTime,
				IsAvailable: available,
			}
			// one row per pitch+day, later writes replace earlier ones
			if err := gdb.Transaction(func(tx *gorm.DB) error {
				var existing models.PitchAvailability
				err := tx.
					Where(&models.PitchAvailability{PitchID: pitch.ID}).
					Where("day_of_week = ?", *body.DayOfWeek).
					First(&existing).
					Error
				if err == nil {
					entry.ID = existing.ID
					return tx.Save(&entry).Error
				}
				if err != gorm.ErrRecordNotFound {
					return err
				}
				return tx.Create(&entry).Error
			}); err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": entry})
		}).
		POST("/pitches/:id/image", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.Status(http.StatusBadRequest)
				return
			}
			gdb := db.GetDb()
			var pitch models.Pitch
			if err := gdb.First(&pitch, params.ID).Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if !pitchOwnerOrAdmin(ctx, &pitch) {
				ctx.Status(http.StatusForbidden)
				return
			}
			file, err := ctx.FormFile("image")
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			tempdir := os.Getenv("TEMP_DIR")
			key := fmt.Sprintf("pitch_%d_%s", pitch.ID, pitch.Slug)
			filepath := path.Join(tempdir, fmt.Sprintf("%s.jpeg", key))
			if err := ctx.SaveUploadedFile(file, filepath); err != nil {
				log.Printf("Error saving upload: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			if _, err := awslib.S3UploadImage(key, filepath); err != nil {
				ctx.Status(http.StatusBadGateway)
				return
			}
			if err := gdb.
				Model(&models.Pitch{}).
				Where("id = ?", pitch.ID).
				Update("image_key", key).
				Error; err != nil {
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"image_key": key})
		})
	return g
}
