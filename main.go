package main

import (
	"context"
	"time"

	"github.com/aruna-labs/identra/internal/app"
)

// @title           Identra API
// @version         1.0
// @description     Identra provides multi-tenant identity, membership, asset and notification APIs.
// @termsOfService  https://identra.dev/terms
// @contact.name    Contact Support
// @contact.url     https://identra.dev/contact
// @contact.email   support@identra.dev
// @license.name    MIT
// @license.url     https://mit-license.org/
// @server          http://localhost:8080
// @server          https://localhost:8080
// @securityDefinitions.apikey  BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT.
func main() {
	application := app.New()
	wait := application.Start()
	<-wait

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	application.Stop(ctx)
}
