package main

import (
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"regexp"
	"time"

	"pbs/src/boot"
	"pbs/src/config"
	"pbs/src/middlewares"
	"pbs/src/types"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
)

const (
	apiPrefix string = "/api/v1"
)

// clocktime accepts zero-padded 24h wall-clock strings like "09:30".
var clockTimeValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if len(value) != len(config.CLOCK_PARSE_FORMAT) {
		return false
	}
	_, err := time.Parse(config.CLOCK_PARSE_FORMAT, value)
	return err == nil
}

// clockafter=Field requires the tagged clock value to sort after the named
// sibling field. Zero-padded strings make string comparison time comparison.
var clockAfterValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	if !field.IsValid() {
		return false
	}
	other, ok := field.Interface().(string)
	if !ok {
		return false
	}
	return value > other
}

// datevalue accepts calendar dates like "2025-06-01".
var dateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse(config.DATE_PARSE_FORMAT, value)
	return err == nil
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("clocktime", clockTimeValidatorFunc)
		v.RegisterValidation("clockafter", clockAfterValidatorFunc)
		v.RegisterValidation("datevalue", dateValidatorFunc)
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		if os.Getenv("MAINTENANCE_MODE") == "true" {
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service is under maintenance"})
		}
	})
	return g
}

func apiv1Group(router *gin.Engine) *gin.RouterGroup {
	g := router.Group(apiPrefix)
	g.GET("", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return g
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	boot.InitDb()
	boot.InitScheduler()
	defer boot.StopScheduler()
	go boot.InitBroker()

	router := setupRouter()

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOriginFunc = func(origin string) bool {
			match, _ := regexp.MatchString(appHost, origin)
			return match
		}
		cc.AllowCredentials = true
		cc.AllowAllOrigins = false
		router.Use(cors.New(cc))
	}

	registerValidators()

	router = maintenanceModeMiddleware(router)

	guestAuthRoutes(router)

	authorized := apiv1Group(router)
	authorized.Use(middlewares.AuthMiddleware)
	authorized.Use(middlewares.RateLimitMiddleware)
	authorized.Use(middlewares.MaintenanceMiddleware)
	{
		authorized = authSessionRoutes(authorized)
		authorized = userHandlers(authorized)
		authorized = pitchHandlers(authorized)
		authorized = bookingHandlers(authorized)
		authorized = paymentHandlers(authorized)
		authorized = reviewHandlers(authorized)
		authorized = tournamentHandlers(authorized)
		authorized = messageHandlers(authorized)
		authorized = promotionHandlers(authorized)
		authorized = applyPromotionRoute(authorized)

		admin := authorized.Group("")
		admin.Use(middlewares.RequireRole(types.ROLE_ADMIN))
		settingHandlers(admin)
	}

	router.Run(":8080")
}
