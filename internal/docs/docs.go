// Package docs registers the OpenAPI document served under /swagger.
//
// Regenerate from the handler annotations with:
//
//	swag init -g cmd/server/main.go -o internal/docs
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
        "/users": {
            "get": {"tags": ["identities"], "summary": "Search plain users by name", "parameters": [{"type": "string", "name": "q", "in": "query"}, {"type": "integer", "name": "page", "in": "query"}, {"type": "integer", "name": "page_size", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["identities"], "summary": "Register a plain user", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/users/{id}": {
            "get": {"tags": ["identities"], "summary": "Get a plain user", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "422": {"description": "Wrong actor kind"}}}
        },
        "/merchants": {
            "get": {"tags": ["identities"], "summary": "Search merchants by name or qualification", "parameters": [{"type": "string", "name": "q", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["identities"], "summary": "Register a merchant", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/merchants/{id}": {
            "get": {"tags": ["identities"], "summary": "Get a merchant with its product ids", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "422": {"description": "Wrong actor kind"}}}
        },
        "/merchants/{id}/users/{userId}/performance": {
            "get": {"tags": ["identities"], "summary": "Merchant view of a user's transaction record", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "userId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "422": {"description": "Wrong actor kind"}}}
        },
        "/identities/{id}": {
            "get": {"tags": ["identities"], "summary": "Show an identity's membership tier", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/merchants/{id}/products": {
            "post": {"tags": ["catalog"], "summary": "List a product", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "422": {"description": "Wrong actor kind"}}}
        },
        "/products/{id}": {
            "get": {"tags": ["catalog"], "summary": "Get a product", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/categories/{category}/products": {
            "get": {"tags": ["catalog"], "summary": "Search products by category", "parameters": [{"type": "string", "name": "category", "in": "path", "required": true}, {"type": "string", "name": "If-None-Match", "in": "header"}], "responses": {"200": {"description": "OK"}, "304": {"description": "Not Modified"}}}
        },
        "/categories/{category}/comparison": {
            "get": {"tags": ["catalog"], "summary": "Compare the products of a category", "parameters": [{"type": "string", "name": "category", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/merchants/{id}/reviews": {
            "get": {"tags": ["transactions"], "summary": "List reviews received by a merchant", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "422": {"description": "Wrong actor kind"}}}
        },
        "/transactions": {
            "post": {"tags": ["transactions"], "summary": "Request a product", "parameters": [{"type": "string", "name": "Idempotency-Key", "in": "header"}, {"type": "string", "name": "X-Actor-ID", "in": "header"}], "responses": {"201": {"description": "Created"}, "404": {"description": "Not Found"}, "409": {"description": "Out of stock"}, "422": {"description": "Wrong actor kind"}}}
        },
        "/transactions/{id}": {
            "get": {"tags": ["transactions"], "summary": "Get a transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/transactions/{id}/seller-contact": {
            "post": {"tags": ["transactions"], "summary": "Answer a request with the seller's contact", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        },
        "/transactions/{id}/complete": {
            "post": {"tags": ["transactions"], "summary": "Complete a transaction with a review", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        },
        "/transactions/{id}/cancel": {
            "post": {"tags": ["transactions"], "summary": "Cancel a transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        },
        "/transactions/{id}/review": {
            "get": {"tags": ["transactions"], "summary": "Get the review of a completed transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Market Backend API",
	Description:      "Marketplace reputation and transaction lifecycle engine.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
