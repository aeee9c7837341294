// Command lambda serves the API as a Netlify Function or AWS Lambda handler.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/user/imobiliaria-go/gateway"
	"github.com/user/imobiliaria-go/server"
)

func main() {
	app, err := server.Bootstrap(context.Background())
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	gw := gateway.New(app.Router(), app.Logger)
	lambda.Start(gw.HandleEvent)
}
