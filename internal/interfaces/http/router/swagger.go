package router

import (
	"net/http"

	_ "github.com/GrupoEuro/SmartEC-sub000/docs" // registers the OpenAPI document
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SwaggerPath serves the Swagger UI and doc.json.
const SwaggerPath = "/swagger/*any"

// MountSwagger serves the API documentation outside the versioned API group.
func MountSwagger(engine *gin.Engine, middleware ...gin.HandlerFunc) Route {
	handlers := make([]gin.HandlerFunc, 0, len(middleware)+1)
	handlers = append(handlers, middleware...)
	handlers = append(handlers, ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET(SwaggerPath, handlers...)
	return Route{Method: http.MethodGet, Path: SwaggerPath}
}
