package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gormlogger "gorm.io/gorm/logger"
)

func TestForEnvironment(t *testing.T) {
	prod := ForEnvironment(true, "warn")
	assert.Equal(t, "json", prod.encoding)
	assert.Equal(t, "warn", prod.Level())

	dev := ForEnvironment(false, "DEBUG")
	assert.Equal(t, "console", dev.encoding)
	assert.Equal(t, "debug", dev.Level())
	assert.Equal(t, "console", dev.Named("worker").encoding)
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	assert.Equal(t, "info", New("loud").Level())
	assert.Equal(t, "info", NewDevelopment("").Level())
}

func TestGormLoggerLevelFollowsLogger(t *testing.T) {
	assert.Equal(t, gormlogger.Info, NewGormLogger(New("debug")).level)
	assert.Equal(t, gormlogger.Warn, NewGormLogger(New("info")).level)
}
