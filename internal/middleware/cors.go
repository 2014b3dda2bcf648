package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kindlr/kindlr/internal/config"
)

func CORS(cfg *config.Store) gin.HandlerFunc {
	security := cfg.Get().Security
	return cors.New(cors.Config{
		AllowOrigins:     security.CORS.AllowedOrigins,
		AllowMethods:     security.CORS.AllowedMethods,
		AllowHeaders:     security.CORS.AllowedHeaders,
		AllowCredentials: true,
	})
}
