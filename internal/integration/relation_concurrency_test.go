package integration

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/plateshare/backend/internal/models"
	"github.com/plateshare/backend/internal/service"
)

// setupPostgres starts a throwaway PostgreSQL container so the unique
// constraints behave exactly as they do in production.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("Skipping container-backed test - docker not available")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=testuser password=testpass dbname=testdb sslmode=disable",
		host, port.Port())
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Ingredient{},
		&models.Tag{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingListEntry{},
		&models.Follow{},
	))
	return db
}

// Concurrent favorite adds for the same pair must leave exactly one
// row; every loser observes the duplicate, never a silent success.
func TestConcurrentFavoriteAdds(t *testing.T) {
	db := setupPostgres(t)
	relations := service.NewRelationService(db)
	ctx := context.Background()

	user := models.User{Email: "reader@example.com", Username: "reader", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	author := models.User{Email: "author@example.com", Username: "author", PasswordHash: "x"}
	require.NoError(t, db.Create(&author).Error)
	recipe := models.Recipe{Name: "Bread", AuthorID: author.ID, Text: "bake it", CookingTime: 30}
	require.NoError(t, db.Create(&recipe).Error)

	const workers = 10
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := relations.AddFavorite(ctx, user.ID, recipe.ID)
			errs[i] = err
		}(i)
	}
	wg.Wait()

	var succeeded, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, service.ErrDuplicateRelation):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, workers-1, duplicates)

	var count int64
	require.NoError(t, db.Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", user.ID, recipe.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

// Concurrent follows of the same author likewise collapse to one row.
func TestConcurrentFollows(t *testing.T) {
	db := setupPostgres(t)
	relations := service.NewRelationService(db)
	ctx := context.Background()

	user := models.User{Email: "reader@example.com", Username: "reader", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	author := models.User{Email: "author@example.com", Username: "author", PasswordHash: "x"}
	require.NoError(t, db.Create(&author).Error)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := relations.Follow(ctx, user.ID, author.ID, 0)
			errs[i] = err
		}(i)
	}
	wg.Wait()

	var succeeded, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, service.ErrDuplicateRelation):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, succeeded)
	require.Equal(t, workers-1, duplicates)

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", user.ID, author.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

// The self-follow check constraint holds at the storage level too.
func TestSelfFollowRejectedByStorage(t *testing.T) {
	db := setupPostgres(t)

	user := models.User{Email: "reader@example.com", Username: "reader", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	err := db.Create(&models.Follow{UserID: user.ID, AuthorID: user.ID}).Error
	require.Error(t, err)
}
