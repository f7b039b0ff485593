package main

// General API documentation for swaggo. Run `swag init -g cmd/renderd/docs.go -o internal/apidocs` to regenerate.
//
// @title           renderd API
// @version         1.0
// @description     HTTP API that renders HTML documents to PDF on a shared headless Chromium.
//
// @contact.name   renderd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
