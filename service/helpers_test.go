package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/arenaforge/gameapi/auth"
	"github.com/arenaforge/gameapi/model"
	"github.com/arenaforge/gameapi/service"
	"github.com/arenaforge/gameapi/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const goodPassword = "Passw0rdOK"

type fixture struct {
	db         *gorm.DB
	users      *service.UserService
	characters *service.CharacterService
	equipment  *service.EquipmentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	limiter := service.NewLoginLimiter(c, 3, time.Minute, logger)
	return &fixture{
		db:         db,
		users:      service.NewUserService(db, auth.NewBcryptHasher(bcrypt.MinCost), limiter, logger),
		characters: service.NewCharacterService(db, logger),
		equipment:  service.NewEquipmentService(db, logger),
	}
}

func (f *fixture) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), username, username+"@example.com", goodPassword)
	require.NoError(t, err)
	return u
}
