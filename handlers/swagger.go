package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the country service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>country-service - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "country-service", "version": "v1.0.0", "description": "Country metadata merged with USD exchange rates and an estimated GDP." },
  "paths": {
    "/countries/refresh": {
      "post": { "summary": "Fetch both upstreams, merge and upsert all countries, render the summary image", "responses": { "200": { "description": "refresh count" }, "500": { "description": "no upstream data" } } }
    },
    "/countries": {
      "get": {
        "summary": "List countries",
        "parameters": [
          { "name": "region", "in": "query", "schema": { "type": "string" }, "description": "case-insensitive region, takes precedence" },
          { "name": "currency", "in": "query", "schema": { "type": "string" }, "description": "case-insensitive currency code" },
          { "name": "sort", "in": "query", "schema": { "type": "string", "enum": ["gdp_desc"] } }
        ],
        "responses": { "200": { "description": "countries" }, "404": { "description": "no match" } }
      }
    },
    "/countries/image": {
      "get": { "summary": "Summary PNG of the top countries by estimated GDP", "responses": { "200": { "description": "image/png" }, "404": { "description": "not generated yet" } } }
    },
    "/countries/{name}": {
      "get": { "summary": "Get one country", "parameters": [{ "name": "name", "in": "path", "required": true, "schema": { "type": "string" } }], "responses": { "200": { "description": "country" }, "400": { "description": "blank name" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete one country", "parameters": [{ "name": "name", "in": "path", "required": true, "schema": { "type": "string" } }], "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/status": {
      "get": { "summary": "Row count and latest refresh time", "responses": { "200": { "description": "status" }, "404": { "description": "empty table" } } }
    },
    "/status/refreshes": {
      "get": { "summary": "Recent refresh runs, newest first", "parameters": [{ "name": "limit", "in": "query", "schema": { "type": "integer", "minimum": 1 } }], "responses": { "200": { "description": "runs" }, "404": { "description": "no runs" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
