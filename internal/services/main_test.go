package services

import (
	"os"
	"testing"

	"spendtree/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init("test")
	os.Exit(m.Run())
}
