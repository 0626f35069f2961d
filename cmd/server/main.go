package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abiorh001/notify-hub/internal/config"
	"github.com/Abiorh001/notify-hub/internal/handlers"
	"github.com/Abiorh001/notify-hub/internal/middleware"
	"github.com/Abiorh001/notify-hub/internal/repository"
	"github.com/Abiorh001/notify-hub/internal/service"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	generateSecret := flag.Bool("generate-secret", false, "print a random JWT secret key and exit")
	flag.Parse()

	if *generateSecret {
		secret, err := service.GenerateSecretKey()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(secret)
		return
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	dynamoClient, err := initDynamoDB(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize DynamoDB")
	}

	redisClient, err := initRedis(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize Redis")
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	roleRepo := repository.NewRoleRepository(dynamoClient, cfg.DynamoDB.TableName, logger)
	recipientRepo := repository.NewRecipientRepository(dynamoClient, cfg.DynamoDB.TableName, cfg.DynamoDB.CreatedByIndex, logger)

	// Initialize services
	codec, err := service.NewTokenCodec(cfg.JWT.SecretKey, cfg.JWT.Algorithm)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize token codec")
	}

	revocationStore := service.NewRevocationStore(redisClient, cfg.JWT.RevocationTTL, logger)
	tokenService := service.NewTokenService(codec, revocationStore, &cfg.JWT, logger)
	hasher := service.NewPasswordHasher(cfg.Auth.BcryptCost)
	authenticator := service.NewAuthenticator(tokenService, userRepo, cfg.Server.LookupTimeout, logger)
	authorizer := service.NewAuthorizer(roleRepo, cfg.Server.LookupTimeout, logger)

	validator := handlers.NewValidator()
	authHandlers := handlers.NewAuthHandlers(tokenService, hasher, userRepo, validator, logger)
	userHandlers := handlers.NewUserHandlers(userRepo, roleRepo, hasher, validator, logger)
	recipientHandlers := handlers.NewRecipientHandlers(recipientRepo, validator, logger)

	authMiddleware := middleware.NewAuthMiddleware(authenticator, authorizer, logger)
	router := setupRouter(cfg, authHandlers, userHandlers, recipientHandlers, authMiddleware, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

func initDynamoDB(cfg *config.Config, logger *logrus.Logger) (*dynamodb.Client, error) {
	var awsCfg aws.Config
	var err error

	if cfg.DynamoDB.Endpoint != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(),
			awsconfig.WithRegion(cfg.DynamoDB.Region),
			awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
				func(service, region string, options ...interface{}) (aws.Endpoint, error) {
					return aws.Endpoint{
						URL:           cfg.DynamoDB.Endpoint,
						SigningRegion: cfg.DynamoDB.Region,
					}, nil
				})),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(cfg.DynamoDB.Region))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg)
	logger.WithField("table", cfg.DynamoDB.TableName).Info("DynamoDB client initialized")
	return client, nil
}

// initRedis connects to the revocation store. The server refuses to start
// without it since every authenticated request consults it.
func initRedis(cfg *config.Config, logger *logrus.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Endpoint,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Redis.Endpoint, err)
	}

	logger.WithField("endpoint", cfg.Redis.Endpoint).Info("Redis client initialized")
	return client, nil
}

func setupRouter(
	cfg *config.Config,
	authHandlers *handlers.AuthHandlers,
	userHandlers *handlers.UserHandlers,
	recipientHandlers *handlers.RecipientHandlers,
	authMiddleware *middleware.AuthMiddleware,
	logger *logrus.Logger,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.LoggingMiddleware(logger))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET", "OPTIONS")

	handlers.RegisterRoutes(router, authHandlers, userHandlers, recipientHandlers, authMiddleware, cfg.Auth.AdminRoles)

	return router
}
