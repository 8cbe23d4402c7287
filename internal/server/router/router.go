package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/cryptoants/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.EconomyHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	deps := handler.Deps()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/stats", handler.Stats)
	r.GET("/accounts/:address", handler.GetAccount)
	r.GET("/ants/:id", handler.GetAnt)

	if deps.FaucetEnabled && deps.Wallets != nil {
		r.POST("/accounts/:address/deposit", handler.Deposit)
	}
	if deps.Events != nil {
		r.GET("/events", handler.ListEvents)
	}
	if deps.Clock != nil {
		r.POST("/clock/advance", handler.AdvanceClock)
	}

	authed := r.Group("/", handler.RequireCaller)
	authed.POST("/eggs/buy", handler.BuyEggs)
	authed.POST("/ants", handler.CreateAnt)
	authed.POST("/ants/:id/eggs", handler.CreateEgg)
	authed.POST("/ants/:id/sell", handler.SellAnt)
	authed.POST("/ants/:id/transfer", handler.TransferAnt)
	if deps.Commands != nil {
		authed.POST("/commands", handler.RunCommand)
	}

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("caller", c.GetHeader(handlers.CallerHeader)))
	}
}
