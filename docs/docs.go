// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/books": {
            "get": {"tags": ["books"], "summary": "List books", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Book"}}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["books"], "summary": "Create book",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/book.CreateBookReq"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/model.Book"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/controller.Message"}}}}
        },
        "/api/books/available": {
            "get": {"tags": ["books"], "summary": "List available books", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Book"}}}}}
        },
        "/api/books/search": {
            "get": {"tags": ["books"], "summary": "Search books", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "in": "query", "name": "title"},
                    {"type": "string", "in": "query", "name": "author"},
                    {"type": "string", "in": "query", "name": "genre"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.Book"}}}}}
        },
        "/api/books/{id}": {
            "get": {"tags": ["books"], "summary": "Get book", "produces": ["application/json"],
                "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Book"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/controller.Message"}}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["books"], "summary": "Update book",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/book.UpdateBookReq"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.Book"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/controller.Message"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/controller.Message"}}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["books"], "summary": "Delete book", "produces": ["application/json"],
                "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/controller.Message"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/controller.Message"}}}}
        },
        "/api/books/{id}/rentals": {
            "get": {"tags": ["books"], "summary": "Book rental history", "produces": ["application/json"],
                "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.RentalDetail"}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/controller.Message"}}}}
        },
        "/api/rentals": {
            "get": {"tags": ["rentals"], "summary": "List rentals", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "in": "query", "name": "user"},
                    {"type": "string", "in": "query", "name": "from"},
                    {"type": "string", "in": "query", "name": "to"},
                    {"type": "boolean", "in": "query", "name": "open"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.RentalDetail"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/controller.Message"}}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["rentals"], "summary": "Create rental",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/rental.CreateRentalReq"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/model.RentalDetail"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/controller.Message"}}}}
        },
        "/api/rentals/active": {
            "get": {"tags": ["rentals"], "summary": "List open rentals", "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.RentalDetail"}}}}}
        },
        "/api/rentals/{id}": {
            "get": {"tags": ["rentals"], "summary": "Get rental", "produces": ["application/json"],
                "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RentalDetail"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/controller.Message"}}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["rentals"], "summary": "Update rental",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true},
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/rental.UpdateRentalReq"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RentalDetail"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/controller.Message"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/controller.Message"}}}}
        },
        "/api/rentals/{id}/return": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["rentals"], "summary": "Return rental", "produces": ["application/json"],
                "parameters": [{"type": "integer", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/model.RentalDetail"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/controller.Message"}}}}
        }
    },
    "definitions": {
        "controller.Message": {"type": "object", "properties": {"message": {"type": "string", "example": "Book with ID 3 not found"}}},
        "model.Book": {"type": "object", "properties": {
            "bookId": {"type": "integer"}, "title": {"type": "string"}, "author": {"type": "string"},
            "genre": {"type": "string"}, "available": {"type": "boolean"}}},
        "model.RentalDetail": {"type": "object", "properties": {
            "rentalId": {"type": "integer"}, "userDetails": {"type": "string"},
            "rentalDate": {"type": "string", "example": "2024-03-09"}, "returnDate": {"type": "string", "example": "2024-03-23"},
            "books": {"type": "array", "items": {"$ref": "#/definitions/model.Book"}}}},
        "book.CreateBookReq": {"type": "object", "required": ["title", "author"], "properties": {
            "title": {"type": "string", "example": "Dune"}, "author": {"type": "string", "example": "Frank Herbert"},
            "genre": {"type": "string", "example": "Science Fiction"}, "available": {"type": "boolean"}}},
        "book.UpdateBookReq": {"type": "object", "properties": {
            "title": {"type": "string"}, "author": {"type": "string"}, "genre": {"type": "string"}, "available": {"type": "boolean"}}},
        "rental.CreateRentalReq": {"type": "object", "properties": {
            "userDetails": {"type": "string", "example": "Jane Doe, jane@example.com"},
            "rentalDate": {"type": "string", "example": "2024-03-09"}, "returnDate": {"type": "string", "example": "2024-03-23"},
            "bookIds": {"type": "array", "items": {"type": "integer"}}}},
        "rental.UpdateRentalReq": {"type": "object", "properties": {
            "userDetails": {"type": "string"}, "rentalDate": {"type": "string"}, "returnDate": {"type": "string"}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"description": "Use:  Bearer <JWT>", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Book Rental API",
	Description:      "Book catalog and multi-book rentals.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
