package main

import (
	"context"
	"log"
	"os"

	"github.com/pot-code/learnforge-gateway/internal/course"
	"github.com/pot-code/learnforge-gateway/internal/domain"
	infra "github.com/pot-code/learnforge-gateway/internal/infrastructure"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/driver"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/logging"
	"github.com/pot-code/learnforge-gateway/internal/infrastructure/uuid"
	ihttp "github.com/pot-code/learnforge-gateway/internal/interfaces/http"
	"github.com/pot-code/learnforge-gateway/internal/remote"
	"github.com/pot-code/learnforge-gateway/internal/resource"
	"github.com/pot-code/learnforge-gateway/internal/user"
	"go.uber.org/zap"
)

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	option, err := infra.InitConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		FilePath: option.Logging.FilePath,
		Level:    option.Logging.Level,
		AppID:    option.AppID,
		Env:      option.Env,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %s\n", err)
	}
	logger = logger.With(
		zap.String("service.id", option.AppID),
	)
	defer logger.Sync()

	dbConn, err := driver.GetDBConnection(&driver.DBConfig{
		User:     option.Database.User,
		Password: option.Database.Password,
		MaxConn:  option.Database.MaxConn,
		Protocol: option.Database.Protocol,
		Driver:   option.Database.Driver,
		Host:     option.Database.Host,
		Port:     option.Database.Port,
		Query:    option.Database.Query,
		Schema:   option.Database.Schema,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create DB connection", zap.Error(err))
	}
	defer dbConn.Close(context.Background())
	logger.Debug("Create db connection instance", zap.String("db.driver", option.Database.Driver),
		zap.String("db.schema", option.Database.Schema),
		zap.String("db.host", option.Database.Host),
	)

	rdb := driver.NewRedisClient(option.KVStore.Host, option.KVStore.Port, option.KVStore.Password)
	defer rdb.Close()

	backend, err := remote.NewClient(&remote.Config{
		BaseURL: option.Backend.BaseURL,
		Timeout: option.Backend.Timeout,
	}, logger.Named("backend"))
	if err != nil {
		logger.Fatal("Failed to create backend client", zap.Error(err))
	}

	UUIDGenerator := uuid.NewNanoIDGenerator(option.Security.IDLength)
	UserRepo := user.NewUserRepository(dbConn, UUIDGenerator)
	UserUseCase := user.NewUserUseCase(UserRepo, option.Security.MaxLoginAttempts, option.Security.RetryTimeout)

	CourseUseCase := course.NewUseCase(backend)
	ResourceUseCase := resource.NewUseCase(backend, logger)
	ProgressRepos := func(learnerID int) domain.ProgressRepository {
		return backend.ForLearner(learnerID)
	}

	if err := ihttp.Serve(dbConn, rdb, option, UserUseCase, ProgressRepos, CourseUseCase, ResourceUseCase, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
