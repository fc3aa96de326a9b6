package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tckz/click-counter/internal/counter"
	"go.uber.org/zap"
)

type Server struct {
	store  counter.Store
	logger *zap.Logger
	engine *gin.Engine
}

func New(store counter.Store, logger *zap.Logger) *Server {
	s := &Server{
		store:  store,
		logger: logger,
		engine: gin.New(),
	}
	// Match on the raw path so an encoded slash stays inside :uid.
	s.engine.UseRawPath = true
	s.engine.RedirectTrailingSlash = false
	s.engine.Use(gin.Recovery(), AccessLog(logger), cors.New(corsConfig()))
	s.registerRoutes()
	return s
}

func corsConfig() cors.Config {
	c := cors.DefaultConfig()
	c.AllowAllOrigins = true
	return c
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := s.engine.Group("/api")
	{
		api.GET("/counts", s.getCounts)
		api.POST("/click/:uid", s.click)
		api.POST("/click/:uid/", s.click)
	}
}

func (s *Server) getCounts(c *gin.Context) {
	counts, err := s.store.GetAll(c.Request.Context())
	if err != nil {
		s.logger.Error("GetAll", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, counts)
}

// click answers only OK or Err; callers never see the new count.
func (s *Server) click(c *gin.Context) {
	uid := c.Param("uid")
	if err := s.store.Increment(c.Request.Context(), uid); err != nil {
		s.logger.Error("Increment", zap.String("uid", uid), zap.Error(err))
		c.String(http.StatusInternalServerError, "Err")
		return
	}
	c.String(http.StatusOK, "OK")
}
