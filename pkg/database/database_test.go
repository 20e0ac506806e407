package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldMigrate(t *testing.T) {
	// release 默认跳过，-migrate / -migrate-only 强制开启
	assert.False(t, ShouldMigrate("release", false))
	assert.True(t, ShouldMigrate("release", true))

	// 非 release 每次启动都迁移
	assert.True(t, ShouldMigrate("debug", false))
	assert.True(t, ShouldMigrate("debug", true))
	assert.True(t, ShouldMigrate("", false))
}
