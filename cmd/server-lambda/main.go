package main

import (
	"context"

	"github.com/promptprofitstudio-sudo/bedtijdavonturen.nl-sub001/app"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/rs/zerolog/log"
)

var ginLambda *ginadapter.GinLambda

// init runs once per Lambda container (cold start).
func init() {
	a, err := app.NewApp(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize app")
	}
	router, err := a.NewRouter()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize router")
	}
	ginLambda = ginadapter.New(router)
}

// Handler is the Lambda entrypoint for API Gateway proxy integration.
func Handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return ginLambda.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(Handler)
}
