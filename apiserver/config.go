package main

import (
	"github.com/kvittoapp/kvitto/apiserver/internal/authx"
	authxMongodb "github.com/kvittoapp/kvitto/apiserver/internal/authx/mongodb"
	authxRedis "github.com/kvittoapp/kvitto/apiserver/internal/authx/redis"
	authxREST "github.com/kvittoapp/kvitto/apiserver/internal/authx/rest"
	"github.com/kvittoapp/kvitto/apiserver/internal/lib/mongodb"
	"github.com/kvittoapp/kvitto/apiserver/internal/lib/oidc"
	"github.com/kvittoapp/kvitto/apiserver/internal/lib/redis"
	"github.com/kvittoapp/kvitto/apiserver/internal/lib/restmachinery"
	"github.com/kvittoapp/kvitto/apiserver/internal/lib/restmachinery/authn"
	"github.com/kvittoapp/kvitto/apiserver/internal/receipts"
	receiptsMongodb "github.com/kvittoapp/kvitto/apiserver/internal/receipts/mongodb"
	receiptsREST "github.com/kvittoapp/kvitto/apiserver/internal/receipts/rest"
)

func getAPIServerFromEnvironment() (restmachinery.Server, error) {

	// API server config
	apiConfig, err := restmachinery.GetConfigFromEnvironment()
	if err != nil {
		return nil, err
	}

	// Common
	database, err := mongodb.Database()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis.Client()
	if err != nil {
		return nil, err
	}

	// Users
	usersStore, err := authxMongodb.NewUsersStore(database)
	if err != nil {
		return nil, err
	}
	usersService := authx.NewUsersService(usersStore)

	// Sessions-- depends on users
	oauth2Config, oidcIdentityVerifier, err :=
		oidc.GetConfigAndVerifierFromEnvironment()
	if err != nil {
		return nil, err
	}
	sessionsStore := authxRedis.NewSessionsStore(redisClient)
	sessionsService := authx.NewSessionsService(
		sessionsStore,
		usersStore,
		oauth2Config,
		oidcIdentityVerifier,
	)

	// Receipts
	receiptsStore, err := receiptsMongodb.NewStore(database)
	if err != nil {
		return nil, err
	}
	receiptsService := receipts.NewService(receiptsStore)

	baseEndpoints := &restmachinery.BaseEndpoints{
		TokenAuthFilter: authn.NewTokenAuthFilter(
			sessionsService.GetByToken,
			usersService.Get,
		),
	}

	authMode := "disabled"
	if oauth2Config != nil {
		authMode = "oidc"
	}

	return restmachinery.NewServer(
		apiConfig,
		baseEndpoints,
		[]restmachinery.Endpoints{
			authxREST.NewSessionsEndpoints(baseEndpoints, sessionsService),
			receiptsREST.NewReceiptsEndpoints(baseEndpoints, receiptsService),
		},
		authMode,
	), nil
}
