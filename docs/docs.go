// Package docs registers the API description served at /swagger/doc.json.
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
        "/projects": {
            "get": {"tags": ["projects"], "summary": "List projects", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["projects"], "summary": "Create a project", "responses": {"201": {"description": "Created"}, "400": {"description": "Validation failed"}}}
        },
        "/projects/{id}": {
            "get": {"tags": ["projects"], "summary": "Get a project", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {"tags": ["projects"], "summary": "Update a project", "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["projects"], "summary": "Delete a project", "responses": {"204": {"description": "Deleted"}, "409": {"description": "Still referenced"}}}
        },
        "/projects/{id}/overview": {
            "get": {"tags": ["projects"], "summary": "Project with requests, progress and materials", "responses": {"200": {"description": "OK"}}}
        },
        "/projects/map": {
            "get": {"tags": ["projects"], "summary": "Projects with coordinates as GeoJSON", "responses": {"200": {"description": "OK"}}}
        },
        "/team-members": {
            "get": {"tags": ["team-members"], "summary": "List team members", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["team-members"], "summary": "Add a team member", "responses": {"201": {"description": "Created"}}}
        },
        "/material-requests": {
            "get": {"tags": ["material-requests"], "summary": "List material requests", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["material-requests"], "summary": "Create a material request with items", "responses": {"201": {"description": "Created"}}}
        },
        "/material-requests/{id}/status": {
            "put": {"tags": ["material-requests"], "summary": "Change request status; approval consumes tracked stock", "responses": {"200": {"description": "OK"}, "500": {"description": "Stock update incomplete"}}}
        },
        "/material-tracking": {
            "get": {"tags": ["material-tracking"], "summary": "List tracking rows", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["material-tracking"], "summary": "Add a tracking row", "responses": {"201": {"description": "Created"}}}
        },
        "/material-tracking/{id}/usage/{date}": {
            "put": {"tags": ["material-tracking"], "summary": "Set one day's usage", "responses": {"200": {"description": "OK"}}}
        },
        "/material-summary": {
            "get": {"tags": ["material-summary"], "summary": "Material withdrawal matrix", "responses": {"200": {"description": "OK"}}}
        },
        "/material-summary/export": {
            "get": {"tags": ["material-summary"], "summary": "Material withdrawal matrix as xlsx", "responses": {"200": {"description": "OK"}}}
        },
        "/progress-updates": {
            "get": {"tags": ["progress-updates"], "summary": "List progress updates", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["progress-updates"], "summary": "Add a progress update", "responses": {"201": {"description": "Created"}}}
        },
        "/uploads": {
            "post": {"tags": ["uploads"], "summary": "Upload images", "responses": {"201": {"description": "Created"}}}
        },
        "/notifications": {
            "get": {"tags": ["dashboard"], "summary": "Recent notices", "responses": {"200": {"description": "OK"}}}
        },
        "/stats": {
            "get": {"tags": ["dashboard"], "summary": "Dashboard counts", "responses": {"200": {"description": "OK"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Sitebook API",
	Description:      "Construction project dashboard: projects, team, material requests, stock tracking and progress reports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
