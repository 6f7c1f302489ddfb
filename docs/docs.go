// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/dishes": {
            "get": {"tags": ["Dishes"], "summary": "List dishes", "operationId": "listDishes", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "304": {"description": "Not Modified"}, "400": {"description": "Invalid category or sort"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Dishes"], "summary": "Register a dish", "operationId": "createDish", "consumes": ["application/json"], "produces": ["application/json"], "responses": {"200": {"description": "Replayed"}, "201": {"description": "Created"}, "400": {"description": "Missing or invalid field"}, "401": {"description": "Unauthorized"}, "409": {"description": "Dish already registered"}}}
        },
        "/dishes/{id}": {
            "get": {"tags": ["Dishes"], "summary": "Get a dish", "operationId": "getDish", "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Dish not found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["Dishes"], "summary": "Update a dish", "operationId": "updateDish", "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "403": {"description": "Not the author"}, "404": {"description": "Dish not found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Dishes"], "summary": "Delete a dish", "operationId": "deleteDish", "parameters": [{"type": "string", "format": "uuid", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "403": {"description": "Not the author"}, "404": {"description": "Dish not found"}}}
        },
        "/dishes/{id}/like": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Likes"], "summary": "Like state", "operationId": "getLike", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Likes"], "summary": "Toggle like", "operationId": "toggleLike", "responses": {"200": {"description": "OK"}, "404": {"description": "Dish not found"}}}
        },
        "/search/dishes": {
            "get": {"tags": ["Dishes"], "summary": "Keyword search", "operationId": "searchDishes", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Missing query"}, "429": {"description": "Rate limited"}}}
        },
        "/users": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Register profile", "operationId": "registerUser", "responses": {"201": {"description": "Created"}, "409": {"description": "Already registered"}}}
        },
        "/users/{id}": {
            "get": {"tags": ["Users"], "summary": "Public profile", "operationId": "getUser", "responses": {"200": {"description": "OK"}, "404": {"description": "User not found"}}}
        },
        "/users/{id}/dishes": {
            "get": {"tags": ["Dishes"], "summary": "Dishes contributed by a user", "operationId": "listUserDishes", "responses": {"200": {"description": "OK"}}}
        },
        "/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Own profile", "operationId": "getMe", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Update own profile", "operationId": "updateMe", "responses": {"200": {"description": "OK"}}}
        },
        "/me/likes": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Likes"], "summary": "Liked dishes", "operationId": "listLiked", "responses": {"200": {"description": "OK"}}}
        },
        "/me/recipes": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Recipes"], "summary": "Saved recipes", "operationId": "listRecipes", "responses": {"200": {"description": "OK"}, "304": {"description": "Not Modified"}}}
        },
        "/recipes/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Recipes"], "summary": "Saved recipe", "operationId": "getRecipe", "responses": {"200": {"description": "OK"}, "404": {"description": "Recipe not found"}}}
        },
        "/recipes/generate": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["Recipes"], "summary": "Generate a recipe", "operationId": "generateRecipe", "responses": {"200": {"description": "Replayed"}, "201": {"description": "Created"}, "400": {"description": "Missing required fields"}, "401": {"description": "Unauthorized"}, "429": {"description": "Rate limited"}, "502": {"description": "Recipe service failed"}, "504": {"description": "Recipe service timed out"}}}
        },
        "/roulette/countries": {
            "get": {"tags": ["Roulette"], "summary": "Countries in the roulette", "operationId": "listCountries", "responses": {"200": {"description": "OK"}}}
        },
        "/roulette/sessions": {
            "post": {"tags": ["Roulette"], "summary": "Start a roulette", "operationId": "startSession", "responses": {"201": {"description": "Created"}, "400": {"description": "Invalid region"}}}
        },
        "/roulette/sessions/{id}": {
            "get": {"tags": ["Roulette"], "summary": "Roulette state", "operationId": "getSession", "responses": {"200": {"description": "OK"}, "404": {"description": "Session not found"}}}
        },
        "/roulette/sessions/{id}/spin": {
            "post": {"tags": ["Roulette"], "summary": "Spin the current stage", "operationId": "spin", "responses": {"200": {"description": "OK"}, "409": {"description": "Spin already in progress"}, "422": {"description": "No dishes for this stage"}}}
        },
        "/roulette/sessions/{id}/reset": {
            "post": {"tags": ["Roulette"], "summary": "Reset a roulette", "operationId": "resetSession", "responses": {"200": {"description": "OK"}}}
        },
        "/rate-limit": {
            "get": {"tags": ["Meta"], "summary": "Quota state for the caller", "operationId": "rateLimitStatus", "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Recipe Roulette API",
	Description:      "Dish catalog, likes, roulette sessions and AI recipe generation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
