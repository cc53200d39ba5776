package main

import (
	"context"
	"errors"
	"eventbooking/src/boot"
	"eventbooking/src/config"
	"eventbooking/src/db"
	"eventbooking/src/lib"
	"eventbooking/src/middlewares"
	"eventbooking/src/repositories"
	"eventbooking/src/services"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	apiPrefix string = "/api"
)

// application holds the services shared by every handler.
type application struct {
	store    repositories.Store
	bookings *services.BookingService
	events   *services.EventService
	accounts *services.AccountService
}

func newApplication(store repositories.Store, publisher lib.Publisher, locker lib.Locker) *application {
	return &application{
		store:    store,
		bookings: services.NewBookingService(store, publisher, locker),
		events:   services.NewEventService(store, publisher),
		accounts: services.NewAccountService(store),
	}
}

func setupRouter(app *application) *gin.Engine {
	registerValidators()

	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	if config.IsProd() {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOrigins = []string{config.AppHost()}
		cc.AllowCredentials = true
		router.Use(cors.New(cc))
	} else {
		router.Use(cors.Default())
	}
	router = maintenanceModeMiddleware(router)

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})

	api := apiGroup(router)
	authenticate := middlewares.Authenticate(app.store.Users())

	authHandlers(api.Group("/auth"), app, authenticate)

	authorized := api.Group("")
	authorized.Use(authenticate)
	{
		userHandlers(authorized.Group("/user"), app)
		bookingHandlers(authorized.Group("/booking"), app)
		eventHandlers(authorized.Group("/events"), app)
	}
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		if config.MaintenanceMode() {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": err.Error()})
			return
		}
	})
	return g
}

func apiGroup(g *gin.Engine) *gin.RouterGroup {
	return g.Group(apiPrefix)
}

func initLogger() {
	cwd, _ := os.Getwd()
	logDir := path.Join(cwd, "logs")
	_ = os.MkdirAll(logDir, 0o755)
	serverLogs := path.Join(logDir, "server.log")
	apiLogs := path.Join(logDir, "api.log")
	gin.ForceConsoleColor()

	f, err := os.Create(apiLogs)
	if err != nil {
		gin.DefaultWriter = os.Stdout
	} else {
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	if os.Getenv("API_ENV") == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()
	if config.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	gdb := boot.InitDb()
	defer db.Close()
	store := repositories.NewGormStore(gdb)

	publisher, err := lib.NewPublisher(config.BrokerKind())
	if err != nil {
		log.Fatalf("error creating activity publisher: %s", err.Error())
	}
	defer publisher.Close()

	locker := lib.NewLocker(boot.InitRedis(), config.BookingLockTTL())

	stopConsumer := boot.InitBroker(gdb)
	defer stopConsumer()

	boot.InitScheduler(store, publisher)
	defer boot.StopScheduler()

	app := newApplication(store, publisher, locker)
	router := setupRouter(app)

	srv := &http.Server{
		Addr:    ":" + config.Port(),
		Handler: router,
	}
	go func() {
		log.Printf("Listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %s\n", err.Error())
	}
}
