// cmd/main.go
package main

import (
	"go-blog-api/app"
)

// @title           Go-Blog API
// @version         1.0
// @description     REST API for a blogging platform: accounts, sessions, posts, comments and moderation.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
